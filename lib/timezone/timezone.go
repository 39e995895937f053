package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Montevideo")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Uruguay local time (UTC-3) because UTE bills by
// local calendar day; a server in another region would otherwise roll the
// "current day" over at the wrong moment when using <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}
