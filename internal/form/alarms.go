package form

import "afc-report-backend/internal/model"

// AlarmRule is the preset applied when a known alarm code is entered.
type AlarmRule struct {
	Malfunction   string   `json:"malfunction"`
	RepairProcess string   `json:"repairProcess"`
	AssignedTo    string   `json:"assignedTo"`
	Status        string   `json:"status"`
	FinalResult   []string `json:"finalResult"`
}

const needsThema = "Needs ΤΗΕΜΑ"

var (
	resultOK    = []string{model.ResultOK}
	noCoins     = []string{model.ResultOnlyBanknotes, model.ResultOnlyCard}
	noBanknotes = []string{model.ResultOnlyCoins, model.ResultOnlyCard}
)

func solvedBy(malfunction, repair string) AlarmRule {
	return AlarmRule{Malfunction: malfunction, RepairProcess: repair, AssignedTo: model.AssigneeTraxis, Status: model.StatusSolved, FinalResult: resultOK}
}

func rejectedForThema(malfunction string, result []string) AlarmRule {
	return AlarmRule{Malfunction: malfunction, RepairProcess: needsThema, AssignedTo: model.AssigneeThema, Status: model.StatusRejected, FinalResult: result}
}

// AlarmRules maps ATIM alarm codes to their presets.
var AlarmRules = map[string]AlarmRule{
	// coin parts
	"MPP 104": rejectedForThema("Coin Payment: Coinbox Full", noCoins),
	"MPP 101": solvedBy("Coin Payment: Coinbox Failure", "Test Coin parts"),
	"MPP 011": solvedBy("Coin Payment: Coin Acceptor Failure", "Test Coin parts"),
	"MPP 105": rejectedForThema("Coin Payment: Unauthorized Cashbox Withdrawal", noCoins),
	"MPP 214": rejectedForThema("Coin reserve 1: Exchanged outside of the procedure", noCoins),
	"MPP 234": rejectedForThema("Coin reserve 2: Exchanged outside of the procedure", noCoins),
	"MPP 701": solvedBy("Coin payment : Deactivation", "Putting coin payment in service from SSUP"),

	// banknote parts
	"APB 001": solvedBy("Banknote Acceptance Faulty", "Removing the jammed banknotes and restart"),
	"RPB 105": rejectedForThema("Banknote Cashbox: Unauthorized Withdrawal", noBanknotes),
	"RPB 601": solvedBy("Banknote Payment: Communication Error", "Removing the jammed banknotes and restart"),
	"RPB 701": solvedBy("Banknote Payment: Local/Remote Out Of Order", "Putting banknote payment in service from SSUP"),

	// ticket and receipt printers
	"MIC 001": solvedBy("E-Ticket Distribution: KO", "Cleaning Printer, delete css.bin, Restart"),
	"MIC 007": solvedBy("E- Ticket distribution : Reading/Writing failure", "Cleaning Printer, delete, css.bin Restart"),
	"EIC 100": rejectedForThema("E-Ticket distribution : Completely empty", resultOK),
	"EIR 003": rejectedForThema("Paper empty", resultOK),
	"MIR 004": solvedBy("Printer Jamming", "Testing the receipt printer"),

	// POS
	"MBB 003": solvedBy("Payment Module is Busy", "Acknowledged Alarm and Red Button"),
	"MBB 601": solvedBy("Connection Card Ko", "Restart"),

	// general
	"AEQ 024": solvedBy("Put The System Out of Order by SSUP", "Unknown"),
	"AEQ 031": solvedBy("Out Of Service Done By Agent", "Unknown"),
	"AEQ 062": solvedBy("SSUP Default", "AFA002"),
	"ART 13":  solvedBy("Forgot card", "Opening and closing Atim"),
}

// LookupAlarm returns the preset for code, if there is one.
func LookupAlarm(code string) (AlarmRule, bool) {
	rule, ok := AlarmRules[code]
	if !ok {
		return AlarmRule{}, false
	}
	rule.FinalResult = append([]string(nil), rule.FinalResult...)
	return rule, true
}
