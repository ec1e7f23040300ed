// The homepanel home control panel
//
// A two node system: a master panel with a 4x4 keypad, a 16x2 display and
// three LEDs, and a slave node switching the room lights, the TV and the air
// conditioning. The nodes talk over a single byte serial link.
//
// Features
//
// - Admin and guest PINs, set on first boot and kept in EEPROM
//
// - Lockout after three wrong PINs, surviving a restart
//
// - Session timeouts, 60s for admin and 30s for guest
//
// - Menu driven device control, with the air conditioning menu for admin only
//
// - Thermostat with a one degree hysteresis band
//
// - Events published over mqtt
//
// - Read only REST API on the slave
//
// - Graphite (graphs) of the room temperature
//
// - Console simulator running both nodes in one process
package homepanel
