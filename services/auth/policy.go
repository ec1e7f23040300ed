package auth

import (
	"time"

	"github.com/barnybug/homepanel/config"
)

// Policy holds the login rules of the panel.
type Policy struct {
	PinLength int
	MaxTries  int
	// Session timeouts, in ticks of the session timer.
	AdminTimeout int
	GuestTimeout int
	LockoutWait  time.Duration
	// PreviewDelay is how long a typed PIN key is shown before it is masked.
	PreviewDelay time.Duration
	MessageDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		PinLength:    4,
		MaxTries:     3,
		AdminTimeout: 6000,
		GuestTimeout: 3000,
		LockoutWait:  20 * time.Second,
		PreviewDelay: 500 * time.Millisecond,
		MessageDelay: time.Second,
	}
}

func PolicyFromConfig(conf config.PolicyConf) Policy {
	return Policy{
		PinLength:    conf.Pin_Length,
		MaxTries:     conf.Tries,
		AdminTimeout: conf.Admin_Timeout,
		GuestTimeout: conf.Guest_Timeout,
		LockoutWait:  conf.Lockout_Wait.Duration,
		PreviewDelay: conf.Preview_Delay.Duration,
		MessageDelay: conf.Message_Delay.Duration,
	}
}

// Timeout is the session length of a role in ticks.
func (p Policy) Timeout(role Role) int {
	if role == Admin {
		return p.AdminTimeout
	}
	return p.GuestTimeout
}
