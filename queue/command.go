package queue

// Command is a nullary action queued for serial execution on a CommandQueue's
// single consumer. A Command's identity is not observable; only queue order
// matters.
type Command func()
