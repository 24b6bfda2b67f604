package report

// Mode names the kind of entity that was clustered.
type Mode string

const (
	ModeSubtrees Mode = "subtrees"
	ModeLeaves   Mode = "leaves"
)

// Report is the rendered-independent outcome of one clustering pass.
type Report struct {
	Source    string    `json:"source"`
	Mode      Mode      `json:"mode"`
	Threshold float64   `json:"threshold"`
	Clusters  []Cluster `json:"clusters"`
}

// Repeated counts clusters with more than one member.
func (r Report) Repeated() int {
	n := 0
	for _, c := range r.Clusters {
		if c.Repeated() {
			n++
		}
	}
	return n
}

type Cluster struct {
	ID      string   `json:"id"`
	Size    int      `json:"size"`
	Members []Member `json:"members"`
}

func (c Cluster) Repeated() bool {
	return c.Size > 1
}

// Member describes one clustered subtree or content node.
// Markdown is empty for members without markup of their own.
type Member struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Tag      string `json:"tag"`
	Leaves   int    `json:"leaves"`
	Preview  string `json:"preview"`
	Markdown string `json:"markdown,omitempty"`
}
