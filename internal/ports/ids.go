package ports

type IDGenerator interface {
	NewDeeplinkID() string
}
