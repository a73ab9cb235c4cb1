package clipboard

// Snapshot is one observation of the OS clipboard. A single clipboard write
// may expose several representations at once; the classifier picks the
// richest one.
type Snapshot struct {
	Text      []byte
	Image     []byte
	FilePaths []string
	SourceApp string
}

// Empty reports whether the snapshot carries nothing usable.
func (s Snapshot) Empty() bool {
	return len(s.Text) == 0 && len(s.Image) == 0 && len(s.FilePaths) == 0
}

// Provider abstracts the OS clipboard. Only polling is assumed: ChangeCount
// is read on a timer and compared against the last observed value.
type Provider interface {
	// ChangeCount returns a counter that increases whenever the clipboard
	// contents change. Values are only compared for equality.
	ChangeCount() uint64

	// Read returns the current clipboard contents.
	Read() Snapshot

	// WriteText and WriteImage place content on the OS clipboard.
	WriteText(text []byte)
	WriteImage(data []byte)
}
