package city

// Account is the budget line a tile's money is booked to.
type Account uint8

const (
	AccountRCI Account = iota // taxes from zones and grown buildings
	AccountOther              // income from stadiums, airports, ports and the rest
	AccountPolice
	AccountFire
	AccountHealth
	AccountEducation
	AccountTransport

	AccountCount
)

var accountNames = [AccountCount]string{"rci", "other", "police", "fire", "health", "education", "transport"}

func (a Account) String() string { return accountNames[a] }

// AccountFor maps a category to its budget line.
func AccountFor(c Category) Account {
	switch c {
	case Field, Water:
		return AccountTransport
	case Residential, Industrial, Commercial:
		return AccountRCI
	case Police:
		return AccountPolice
	case FireDept:
		return AccountFire
	case Hospital, Park:
		return AccountHealth
	case School, HighSchool, University, Museum, Library:
		return AccountEducation
	}
	return AccountOther
}
