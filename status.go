package gobafang

import (
	"errors"
	"fmt"
	"strconv"
)

/*
SLCAN status flags, answer to the F command as F + two hex digits

Bit 0 CAN receive FIFO queue full
Bit 1 CAN transmit FIFO queue full
Bit 2 Error warning (EI)
Bit 3 Data Overrun (DOI)
Bit 4 Not used.
Bit 5 Error Passive (EPI)
Bit 6 Arbitration Lost (ALI)
Bit 7 Bus Error (BEI)
*/

var slcanStatusFlags = []struct {
	bit uint
	msg string
}{
	{0, "CAN receive FIFO queue full"},
	{1, "CAN transmit FIFO queue full"},
	{2, "error warning (EI)"},
	{3, "data overrun (DOI)"},
	{5, "error passive (EPI)"},
	{6, "arbitration lost (ALI)"},
	{7, "bus error (BEI)"},
}

// checkSLCanStatus decodes an F reply, every flag set becomes one error
func checkSLCanStatus(line []byte) error {
	if len(line) != 3 || line[0] != 'F' {
		return fmt.Errorf("invalid status reply %q", line)
	}
	bs, err := strconv.ParseUint(string(line[1:]), 16, 8)
	if err != nil {
		return fmt.Errorf("invalid status reply %q: %w", line, err)
	}
	var errs []error
	for _, f := range slcanStatusFlags {
		if bs&(1<<f.bit) != 0 {
			errs = append(errs, errors.New(f.msg))
		}
	}
	return errors.Join(errs...)
}
