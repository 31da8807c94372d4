package textrules

import "fmt"

// Warning is a non-fatal configuration problem, such as a rule whose target
// entry is absent or an entry declaring an unsupported encoding. The run
// continues after logging it.
type Warning struct {
	Path string
	Msg  string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Msg)
}
