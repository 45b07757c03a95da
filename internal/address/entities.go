package address

// Event addresses an event by its base principal and organizer-chosen id.
func Event(base, id string) Address {
	return Derive(Root, KindEvent, Seed([]byte(base), []byte(id)))
}

// TicketClass addresses a ticket class under its event.
func TicketClass(event Address, seed []byte) Address {
	return Derive(event, KindTicketClass, seed)
}

// Ticket addresses one sold unit under its class.
func Ticket(class Address, seed []byte) Address {
	return Derive(class, KindTicket, seed)
}

// Collaborator addresses the delegation of principal on event.
func Collaborator(event Address, principal string) Address {
	return Derive(event, KindCollaborator, []byte(principal))
}

// EscrowVault addresses the event's sale-proceeds vault.
func EscrowVault(event Address) Address {
	return Derive(event, KindEscrowVault, nil)
}

// FeeVault addresses the event's optional deposit vault.
func FeeVault(event Address) Address {
	return Derive(event, KindFeeVault, nil)
}

// Currency addresses a fungible asset by its code.
func Currency(code string) Address {
	return Derive(Root, KindCurrency, []byte(code))
}

// Account addresses owner's holding of a currency.
func Account(currency Address, owner string) Address {
	return Derive(currency, KindAccount, []byte(owner))
}

// Attendance addresses owner's proof-of-attendance credential for a class.
func Attendance(class Address, owner string) Address {
	return Derive(class, KindAttendance, []byte(owner))
}
