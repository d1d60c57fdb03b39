// Package electionengine hosts plurality elections inside the governance
// context.
//
// An election moves from created to open to ended. The authority that created
// it registers candidates and opens and closes voting; anyone may buy voting
// rights for an account before voting opens, and each rights holder may cast
// up to two paid votes while it is open. Ending the vote declares the
// candidate with the highest tally, ties going to the earliest registration.
//
// Every accepted command appends to the election's event log and to the
// outbox, which the worker relays to the event bus.
package electionengine
