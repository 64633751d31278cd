package testdata

type Member struct {
	ID   int
	Name string
	Tags []Tag `rel:"many_to_many,join_table:member_tags,foreign_key:member_id,references:tag_id"`
}

type Tag struct {
	ID   int
	Name string
}
