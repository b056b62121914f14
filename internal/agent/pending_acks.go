package agent

// Pending-acknowledgment table operations. All of these run on the command
// loop goroutine only; the table needs no locking after initialisation.

// spaceInAckList reports whether at least one slot is free. Producer
// goroutines call this through the public API as a best-effort early
// rejection; the authoritative check is addAwaitingAck on the loop.
func (a *Agent) spaceInAckList() bool {
	for i := range a.pendingAcks {
		if a.pendingAcks[i].packetID == 0 {
			return true
		}
	}

	return false
}

// addAwaitingAck parks a command in the first free slot, keyed by the packet
// identifier the broker will echo back. Returns false when the table is
// full.
func (a *Agent) addAwaitingAck(packetID uint16, cmd *Command) bool {
	for i := range a.pendingAcks {
		if a.pendingAcks[i].packetID == 0 {
			a.pendingAcks[i] = pendingAck{packetID: packetID, command: cmd}
			return true
		}
	}

	return false
}

// findAwaitingAck returns the slot holding packetID, or nil. A zero
// identifier always misses because zero marks free slots.
func (a *Agent) findAwaitingAck(packetID uint16) *pendingAck {
	var found *pendingAck

	for i := range a.pendingAcks {
		if a.pendingAcks[i].packetID == packetID {
			found = &a.pendingAcks[i]
			break
		}
	}

	if found == nil {
		a.logger.Error("no pending operation for packet id", "packet_id", packetID)
	} else if found.command == nil || found.packetID == 0 {
		a.logger.Error("pending ack slot has empty fields", "packet_id", found.packetID)
		found = nil
	}

	return found
}

// clearSlot frees one slot.
func (a *Agent) clearSlot(slot *pendingAck) {
	*slot = pendingAck{}
}

// drainPendingAcks completes every occupied slot with err, releases each
// command, and clears the table. Used by Terminate (ErrBadResponse) and by
// a clean session resume (ErrRecvFailed).
func (a *Agent) drainPendingAcks(err error) {
	for i := range a.pendingAcks {
		if a.pendingAcks[i].packetID == 0 {
			continue
		}

		cmd := a.pendingAcks[i].command
		cmd.complete(CommandResult{Err: err})
		a.messenger.Release(cmd)
		a.pendingAcks[i] = pendingAck{}
	}
}
