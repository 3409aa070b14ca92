package model

// SelectOption is one entry of a picker list, e.g. {12, "Sonata(11가1111)"}.
type SelectOption struct {
	ID    uint
	Label string
}
