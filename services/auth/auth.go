// Package auth is the login state machine of the master panel: first boot
// PIN setup, role selection, PIN checking with retry limiting and lockout,
// and the session timer that forces a logout.
package auth

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/lib/keypad"
	"github.com/barnybug/homepanel/lib/lcd"
	"github.com/barnybug/homepanel/lib/tick"
	"github.com/barnybug/homepanel/pubsub"
	"github.com/barnybug/homepanel/util"
)

type State int32

const (
	Uninitialized State = iota
	FirstBoot
	Idle
	SelectingRole
	EnteringPin
	LockedOut
	LoggedIn
)

var stateNames = []string{"uninitialized", "first-boot", "idle", "selecting-role", "entering-pin", "locked-out", "logged-in"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session is the one live console session. Role is None whenever Locked is
// set.
type Session struct {
	Role     Role
	Attempts int
	Locked   bool
	Timer    *Timer
}

// TriesLeft is the number of PIN attempts before lockout.
func (s *Session) TriesLeft(p Policy) int {
	if n := p.MaxTries - s.Attempts; n > 0 {
		return n
	}
	return 0
}

// column where the PIN is echoed, after "Enter Pass:"
const pinColumn = 11

const mask = "*"

type Authenticator struct {
	Policy    Policy
	store     *Credentials
	keys      keypad.Source
	display   lcd.Display
	ticks     tick.Source
	publisher pubsub.Publisher
	state     atomic.Int32
	session   Session

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(policy Policy, store *Credentials, keys keypad.Source, display lcd.Display, ticks tick.Source, publisher pubsub.Publisher) (*Authenticator, error) {
	switch {
	case store == nil:
		return nil, errors.Wrap(ErrMissingConfig, "credential store")
	case keys == nil:
		return nil, errors.Wrap(ErrMissingConfig, "keypad")
	case display == nil:
		return nil, errors.Wrap(ErrMissingConfig, "display")
	case ticks == nil:
		return nil, errors.Wrap(ErrMissingConfig, "tick source")
	}
	if policy.MaxTries < 1 {
		return nil, errors.Errorf("max tries must be at least 1, got %d", policy.MaxTries)
	}
	if policy.PinLength != store.pinLength {
		return nil, errors.Errorf("pin length %d does not match store %d", policy.PinLength, store.pinLength)
	}
	if publisher == nil {
		publisher = pubsub.Discard{}
	}
	return &Authenticator{
		Policy:    policy,
		store:     store,
		keys:      keys,
		display:   display,
		ticks:     ticks,
		publisher: publisher,
		sleep:     util.Sleep,
	}, nil
}

func (self *Authenticator) State() State {
	return State(self.state.Load())
}

func (self *Authenticator) setState(s State) {
	old := State(self.state.Swap(int32(s)))
	if old != s {
		zap.S().Debugw("Auth state", "from", old, "to", s)
	}
}

// Session returns the current session.
func (self *Authenticator) Session() *Session {
	return &self.session
}

func (self *Authenticator) show(line1, line2 string) {
	self.display.Clear()
	self.display.Print(0, 0, line1)
	if line2 != "" {
		self.display.Print(1, 0, line2)
	}
}

// message shows a notice for the message delay.
func (self *Authenticator) message(ctx context.Context, line1, line2 string) error {
	self.show(line1, line2)
	return self.sleep(ctx, self.Policy.MessageDelay)
}

func (self *Authenticator) emit(role Role, state string) {
	self.publisher.Emit(pubsub.NewSession(role.String(), state))
}

// Boot shows the welcome banner and runs first boot setup when either PIN
// has never been stored. Otherwise the persisted lockout flag is loaded.
func (self *Authenticator) Boot(ctx context.Context) error {
	self.setState(Uninitialized)
	if err := self.message(ctx, "Welcome to Smart", "Home System"); err != nil {
		return err
	}
	adminStatus, err := self.store.Status(Admin)
	if err != nil {
		return err
	}
	guestStatus, err := self.store.Status(Guest)
	if err != nil {
		return err
	}

	if adminStatus != Set || guestStatus != Set {
		self.setState(FirstBoot)
		zap.S().Infow("First boot, setting passwords")
		if err := self.message(ctx, "Login for", "first time"); err != nil {
			return err
		}
		for _, role := range []Role{Admin, Guest} {
			if err := self.setup(ctx, role); err != nil {
				return err
			}
		}
	} else {
		locked, err := self.store.Locked()
		if err != nil {
			// fail safe
			zap.S().Errorw("Reading lock flag", "error", err)
			locked = true
		}
		self.session.Locked = locked
	}
	self.setState(Idle)
	return nil
}

func (self *Authenticator) setup(ctx context.Context, role Role) error {
	title := " Set Admin Pass"
	if role == Guest {
		title = "Set Guest Pass"
	}
	for {
		self.show(title, role.Title()+" pass:")
		pin, err := self.readPin(ctx)
		if err != nil {
			return err
		}
		err = self.store.Set(role, pin)
		if err == nil {
			err = self.store.SetStatus(role, Set)
		}
		if err == nil {
			zap.S().Infow("Password saved", "role", role)
			return self.message(ctx, "Pass Saved", "")
		}
		zap.S().Errorw("Saving password", "role", role, "error", err)
		if err := self.message(ctx, "Storage error", "Try again"); err != nil {
			return err
		}
	}
}

// readPin reads PinLength keys, each echoed for the preview delay and then
// masked.
func (self *Authenticator) readPin(ctx context.Context) ([]byte, error) {
	pin := make([]byte, self.Policy.PinLength)
	for i := range pin {
		k, err := keypad.Read(ctx, self.keys)
		if err != nil {
			return nil, err
		}
		pin[i] = byte(k)
		self.display.Print(1, pinColumn+i, string(rune(k)))
		if err := self.sleep(ctx, self.Policy.PreviewDelay); err != nil {
			return nil, err
		}
		self.display.Print(1, pinColumn+i, mask)
	}
	return pin, nil
}

// Login runs role selection and PIN entry until a session starts. A locked
// panel first sits out the lockout wait.
func (self *Authenticator) Login(ctx context.Context) (*Session, error) {
	for {
		if self.session.Locked {
			if err := self.lockout(ctx); err != nil {
				return nil, err
			}
		}
		self.setState(Idle)
		role, err := self.selectRole(ctx)
		if err != nil {
			return nil, err
		}
		err = self.authenticate(ctx, role)
		if err == nil {
			return &self.session, nil
		}
		if !errors.Is(err, ErrAuthFailure) {
			return nil, err
		}
	}
}

func (self *Authenticator) selectRole(ctx context.Context) (Role, error) {
	self.setState(SelectingRole)
	for {
		self.show("Select mode:", "0:Admin 1:Guest")
		k, err := keypad.Read(ctx, self.keys)
		if err != nil {
			return RoleNone, err
		}
		if role, ok := RoleForKey(k); ok {
			return role, nil
		}
		zap.S().Debugw("Wrong role key", "key", k)
		if err := self.message(ctx, "Wrong input.", ""); err != nil {
			return RoleNone, err
		}
	}
}

// authenticate asks for the role's PIN until it matches, or returns
// ErrAuthFailure once the panel has locked.
func (self *Authenticator) authenticate(ctx context.Context, role Role) error {
	for {
		self.setState(EnteringPin)
		self.show(role.Title()+" mode", "Enter Pass:")
		pin, err := self.readPin(ctx)
		if err != nil {
			return err
		}
		ok, err := self.check(role, pin)
		if err != nil {
			zap.S().Errorw("Checking password", "role", role, "error", err)
			if err := self.message(ctx, "Storage error", ""); err != nil {
				return err
			}
		}
		if ok {
			return self.login(ctx, role)
		}

		self.session.Attempts++
		left := self.session.TriesLeft(self.Policy)
		zap.S().Infow("Wrong password", "role", role, "tries_left", left)
		self.emit(role, "denied")
		self.show("Wrong password", "Tries left:")
		self.display.Print(1, 11, strconv.Itoa(left))
		if err := self.sleep(ctx, self.Policy.MessageDelay); err != nil {
			return err
		}
		if self.session.Attempts >= self.Policy.MaxTries {
			self.lock(role)
			return ErrAuthFailure
		}
	}
}

// check compares the entered PIN with the stored one. A failed read never
// matches.
func (self *Authenticator) check(role Role, pin []byte) (bool, error) {
	stored, status, err := self.store.Get(role)
	if err != nil {
		return false, err
	}
	if status != Set || len(stored) != len(pin) {
		return false, nil
	}
	for i := range pin {
		if pin[i] != stored[i] {
			return false, nil
		}
	}
	return true, nil
}

func (self *Authenticator) login(ctx context.Context, role Role) error {
	if err := self.message(ctx, "Right password", role.Title()+" mode"); err != nil {
		return err
	}
	timer, err := StartTimer(self.ticks, self.Policy.Timeout(role))
	if err != nil {
		return err
	}
	self.session = Session{Role: role, Timer: timer}
	self.setState(LoggedIn)
	zap.S().Infow("Logged in", "role", role)
	self.emit(role, "login")
	self.display.SetLED(ledFor(role), true)
	self.display.Clear()
	return nil
}

func (self *Authenticator) lock(role Role) {
	self.session.Locked = true
	self.session.Role = RoleNone
	self.setState(LockedOut)
	zap.S().Warnw("Login blocked", "attempts", self.session.Attempts)
	self.emit(role, "lockout")
	if err := self.store.SetLocked(true); err != nil {
		// still locked in memory for this power cycle
		zap.S().Errorw("Persisting lock flag", "error", err)
		self.show("Storage error", "")
	}
}

func (self *Authenticator) lockout(ctx context.Context) error {
	self.setState(LockedOut)
	self.show("Login blocked", "wait "+util.FriendlyDuration(self.Policy.LockoutWait))
	self.display.SetLED(lcd.LEDBlock, true)
	if err := self.sleep(ctx, self.Policy.LockoutWait); err != nil {
		return err
	}
	self.display.SetLED(lcd.LEDBlock, false)
	if n := keypad.Drain(self.keys); n > 0 {
		zap.S().Debugw("Keys ignored while blocked", "count", n)
	}
	self.session.Attempts = 0
	self.session.Locked = false
	if err := self.store.SetLocked(false); err != nil {
		zap.S().Errorw("Clearing lock flag", "error", err)
		if err := self.message(ctx, "Storage error", ""); err != nil {
			return err
		}
	}
	zap.S().Infow("Login unblocked")
	return nil
}

// Key waits for a key press during a session. Once the session timer has run
// out it returns keypad.KeyNone and ErrSessionExpired, every time.
func (self *Authenticator) Key(ctx context.Context) (keypad.Key, error) {
	t := self.session.Timer
	if self.session.Role == RoleNone || t == nil {
		return keypad.KeyNone, ErrSessionExpired
	}
	k, err := keypad.Wait(ctx, self.keys, t.Expired())
	if err != nil {
		return keypad.KeyNone, err
	}
	if k == keypad.KeyNone {
		return keypad.KeyNone, ErrSessionExpired
	}
	return k, nil
}

// Logout ends the session. An expired session shows the timeout notice.
func (self *Authenticator) Logout(ctx context.Context) error {
	role := self.session.Role
	timedOut := false
	if t := self.session.Timer; t != nil {
		timedOut = t.IsExpired()
		t.Stop()
	}
	self.display.SetLED(lcd.LEDAdmin, false)
	self.display.SetLED(lcd.LEDGuest, false)
	state := "logout"
	if timedOut {
		state = "timeout"
	}
	zap.S().Infow("Logged out", "role", role, "reason", state)
	self.emit(role, state)
	self.session = Session{}
	self.setState(Idle)
	if timedOut {
		return self.message(ctx, "Session Timeout", "")
	}
	return nil
}

func ledFor(role Role) lcd.LED {
	if role == Admin {
		return lcd.LEDAdmin
	}
	return lcd.LEDGuest
}
