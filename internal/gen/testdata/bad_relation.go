package testdata

type Broken struct {
	ID    int
	Items []Item `rel:"has_lots,foreign_key:broken_id"`
}
