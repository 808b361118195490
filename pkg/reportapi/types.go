package reportapi

// LogFile is a discovered input handle. Content is read eagerly at
// discovery time so modules never touch the filesystem themselves.
type LogFile struct {
	Path string
	Root string
	Fn   string
	Data []byte
}

// ColumnSpec describes one metric column in the cross-module summary table.
type ColumnSpec struct {
	Metric      string `json:"metric"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Scale       string `json:"scale,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	SharedKey   string `json:"shared_key,omitempty"`
	Format      string `json:"format,omitempty"`
	Suffix      string `json:"suffix,omitempty"`
}

// BarCategory maps a metric key to its display label in a bar chart.
type BarCategory struct {
	Metric string `json:"metric"`
	Label  string `json:"label"`
	Color  string `json:"color,omitempty"`
}

// BarChart is a declarative categorical bar chart. Rendering is owned by
// the host; modules only supply data and category mappings.
type BarChart struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	XLab       string        `json:"xlab,omitempty"`
	YLab       string        `json:"ylab,omitempty"`
	Categories []BarCategory `json:"categories"`
	Data       *Table        `json:"data"`
}

// Section is one block of module output in the rendered report.
type Section struct {
	Name        string    `json:"name"`
	Anchor      string    `json:"anchor"`
	Description string    `json:"description,omitempty"`
	Bar         *BarChart `json:"bar,omitempty"`
	Content     string    `json:"content,omitempty"`
}

// Info identifies a module in listings and report headers.
type Info struct {
	Name    string
	Anchor  string
	Href    string
	Summary string
}
