// Package lifecycle renders the generation lifecycle in the terminal.
//
// Select maps generation progress to exactly one presentation. View owns
// nothing but an elapsed-time Clock: it draws the active presentation and
// forwards user actions unchanged to the controller behind the Actions
// interface.
package lifecycle
