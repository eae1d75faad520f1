package limiter

// Limiter marks providers wrapped with a rate limit.
type Limiter interface {
	limiterSetup()
}
