// internal/control/constants.go
package control

// Control block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// BlockWords is the fixed size of the control block.
const BlockWords = 3

// ---- SLOT INDICES ----

// SlotState holds the controller-reported state. Controller-authoritative.
const SlotState = 0

// SlotCommand holds the client-written command.
const SlotCommand = 1

// SlotRowCount holds the negotiated transfer size in rows.
const SlotRowCount = 2

// ---- CONTROLLER STATES ----

// StateIdle means no transfer is in progress.
const StateIdle uint16 = 1

// StateWritingAllowed means the controller granted write permission to a client.
const StateWritingAllowed uint16 = 2

// StateWritingBlocked means the controller refuses writes (recipe running or locked).
const StateWritingBlocked uint16 = 3

// ---- CLIENT COMMANDS ----

// CommandNotActive finalizes a transfer; the data is consistent.
const CommandNotActive uint16 = 1

// CommandRequest asks the controller for write permission.
const CommandRequest uint16 = 2
