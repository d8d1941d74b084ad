package component

// Cooldown blocks an action until Seconds reaches zero, then removes itself.
type Cooldown struct {
	Seconds float64
}

var CooldownComponent = NewComponent[Cooldown]()
