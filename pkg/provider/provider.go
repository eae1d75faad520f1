package provider

type Model struct {
	ID string
}
