package model

// Challenge is a contest prompt with its category tag.
type Challenge struct {
	Category string
	Prompt   string
}
