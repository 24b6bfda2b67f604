package frontier

// DocumentToken is one admitted source together with its position in
// submission order (0-based, duplicates excluded).
type DocumentToken struct {
	source   string
	position int
}

func NewDocumentToken(source string, position int) DocumentToken {
	return DocumentToken{
		source:   source,
		position: position,
	}
}

func (d DocumentToken) Source() string {
	return d.source
}

func (d DocumentToken) Position() int {
	return d.position
}
