package model

import "fmt"

// HouseCoordinate addresses one House roll call: calendar year and number.
type HouseCoordinate struct {
	Year   int
	Number int
}

// Next returns the following roll call in the same year.
func (c HouseCoordinate) Next() HouseCoordinate {
	return HouseCoordinate{Year: c.Year, Number: c.Number + 1}
}

// Rollover moves to the first roll call of the following year.
func (c HouseCoordinate) Rollover() HouseCoordinate {
	return HouseCoordinate{Year: c.Year + 1, Number: 1}
}

// First reports whether the coordinate is the first of its period.
func (c HouseCoordinate) First() bool { return c.Number == 1 }

// Chamber reports the chamber this coordinate belongs to.
func (HouseCoordinate) Chamber() Chamber { return ChamberHouse }

func (c HouseCoordinate) String() string {
	return fmt.Sprintf("house %d #%d", c.Year, c.Number)
}

// SenateCoordinate addresses one Senate roll call.
type SenateCoordinate struct {
	Congress int
	Session  int
	Number   int
}

// Next returns the following roll call in the same session.
func (c SenateCoordinate) Next() SenateCoordinate {
	return SenateCoordinate{Congress: c.Congress, Session: c.Session, Number: c.Number + 1}
}

// Rollover moves from session 1 to session 2, or from session 2 to the first
// session of the next congress.
func (c SenateCoordinate) Rollover() SenateCoordinate {
	if c.Session == 1 {
		return SenateCoordinate{Congress: c.Congress, Session: 2, Number: 1}
	}
	return SenateCoordinate{Congress: c.Congress + 1, Session: 1, Number: 1}
}

// First reports whether the coordinate is the first of its period.
func (c SenateCoordinate) First() bool { return c.Number == 1 }

// Chamber reports the chamber this coordinate belongs to.
func (SenateCoordinate) Chamber() Chamber { return ChamberSenate }

func (c SenateCoordinate) String() string {
	return fmt.Sprintf("senate %d-%d #%d", c.Congress, c.Session, c.Number)
}
