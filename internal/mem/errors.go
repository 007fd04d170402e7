package mem

import "errors"

// ErrNegativeIndex is returned by Get/Set when given a negative cell index.
var ErrNegativeIndex = errors.New("mem: negative index")
