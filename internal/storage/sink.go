package storage

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/record-finder/internal/metadata"
	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/rohmanhakim/record-finder/pkg/fileutil"
	"github.com/rohmanhakim/record-finder/pkg/hashutil"
)

/*
Responsibilities
- Persist rendered reports
- Ensure deterministic filenames

Output Characteristics
- One file per source and format: <outputDir>/<source hash>.<ext>
- Idempotent writes
- Overwrite-safe reruns
- Dry runs compute the result without touching the filesystem
*/

// FilenameHashLength is the number of hex characters of the source digest kept in filenames.
const FilenameHashLength = 12

type Sink interface {
	Write(
		outputDir string,
		artifact Artifact,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
	dryRun       bool
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
	dryRun bool,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
		dryRun:       dryRun,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	artifact Artifact,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, artifact, hashAlgo, s.dryRun)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrSource, artifact.Source()),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	if writeResult.Written() {
		s.metadataSink.RecordArtifact(
			metadata.ArtifactReport,
			writeResult.Path(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
				metadata.NewAttr(metadata.AttrSource, artifact.Source()),
				metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
			},
		)
	}
	return writeResult, nil
}

func write(
	outputDir string,
	artifact Artifact,
	hashAlgo hashutil.HashAlgo,
	dryRun bool,
) (WriteResult, failure.ClassifiedError) {
	sourceHashFull, err := hashutil.HashBytes([]byte(artifact.Source()), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}
	sourceHash := sourceHashFull[:FilenameHashLength]

	contentHash, err := hashutil.HashBytes(artifact.Content(), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}

	fullPath := filepath.Join(outputDir, sourceHash+"."+artifact.Extension())
	if dryRun {
		return NewWriteResult(sourceHash, fullPath, contentHash, false), nil
	}

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      outputDir,
		}
	}

	if err := os.WriteFile(fullPath, artifact.Content(), 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(sourceHash, fullPath, contentHash, true), nil
}
