// Calendar: one tick is one month.
package engine

import "fmt"

// MaxYear is where the calendar stops counting.
const MaxYear = 9999

// Month constants.
const (
	January  = 0
	April    = 3
	July     = 6
	October  = 9
	December = 11
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Date is the city's calendar position.
type Date struct {
	Month int `json:"month"` // 0..11
	Year  int `json:"year"`
}

// Step advances one month, rolling the year over after December.
func (d *Date) Step() {
	d.Month++
	if d.Month > December {
		d.Month = January
		if d.Year < MaxYear {
			d.Year++
		}
	}
}

// QuarterStart reports whether the month opens a budget quarter.
func (d Date) QuarterStart() bool { return d.Month%3 == 0 }

func (d Date) String() string {
	return fmt.Sprintf("%s %d", MonthName(d.Month), d.Year)
}

// MonthName returns a human-readable month name.
func MonthName(m int) string {
	if m < 0 || m > December {
		return "Unknown"
	}
	return monthNames[m]
}
