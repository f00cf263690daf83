package common

import "errors"

// Side is the direction of an order
type Side string

const (
	// Buy opens or adds to a long position
	Buy Side = "BUY"
	// Sell closes a long position
	Sell Side = "SELL"

	// CSVStr is a config readable data source to load bars from csv files
	CSVStr = "csv"
	// DatabaseStr is a config readable data source to load bars from a database
	DatabaseStr = "database"
)

// Data source identifiers
const (
	DataCSV = iota
	DataDatabase
)

var (
	// ErrNilArguments is a common error response to highlight that nils were passed in
	// when they should not have been
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrInvalidSide occurs when an order side is neither buy nor sell
	ErrInvalidSide = errors.New("invalid order side")
	// ErrInvalidDataSource occurs when an invalid data source is defined in the config
	ErrInvalidDataSource = errors.New("invalid data source received")
)

// ASCIILogo is printed to the command line window at startup
const ASCIILogo = `
   _______________  ____
  / ____/ ____/ __ \/ __ )
 / / __/ /_  / / / / __  |
/ /_/ / __/ / /_/ / /_/ /
\____/_/    \____/_____/
    ____             __   __            __
   / __ )____ ______/ /__/ /____  _____/ /____  _____
  / __  / __  / ___/ //_/ __/ _ \/ ___/ __/ _ \/ ___/
 / /_/ / /_/ / /__/ ,< / /_/  __(__  ) /_/  __/ /
/_____/\__,_/\___/_/|_|\__/\___/____/\__/\___/_/
`
