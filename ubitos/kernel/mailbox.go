package kernel

// mailbox holds up to mailboxSlots messages in arrival order.
type mailbox struct {
	n     uint8
	slots [mailboxSlots]Message
}

func (mb *mailbox) full() bool { return mb.n >= mailboxSlots }

func (mb *mailbox) push(msg Message) bool {
	if mb.full() {
		return false
	}
	mb.slots[mb.n] = msg
	mb.n++
	return true
}

// take removes the oldest message accepted by kind.
func (mb *mailbox) take(kind uint16) (Message, bool) {
	for i := uint8(0); i < mb.n; i++ {
		if !matches(kind, mb.slots[i].Kind) {
			continue
		}
		msg := mb.slots[i]
		copy(mb.slots[i:mb.n], mb.slots[i+1:mb.n])
		mb.n--
		mb.slots[mb.n] = Message{}
		return msg, true
	}
	return Message{}, false
}

func matches(filter, kind uint16) bool {
	return filter == KindAny || filter == kind
}

func acceptsInterrupt(filter uint16) bool {
	return matches(filter, KindInterrupt)
}
