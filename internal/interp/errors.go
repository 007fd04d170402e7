package interp

import "loda/internal/errs"

var errNoProgramCache = errs.New(errs.InvalidOperand, "SEQ/PRG invoked with no ProgramCache configured")

func negativeIndexErr() error {
	return errs.New(errs.NegativeIndex, "negative memory index")
}
