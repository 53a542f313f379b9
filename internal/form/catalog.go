package form

import (
	"sort"

	"afc-report-backend/internal/model"
)

// Reporters are the engineers offered in the reporter picker.
var Reporters = []string{
	"Emmanouil Kazantzoglou",
	"Konstantinos Saltzoglou",
	"Dimitris Mpazakas",
	"Nikos Tsiagkas",
	"Kostantinos Andreadis",
	"Vassilis Kontses",
}

// AlarmCodes are the suggestions of the alarm code input.
var AlarmCodes = []string{
	"No Alarm",
	"ACR 001", "ACR 003", "AEQ 012", "AEQ 024", "AEQ 031", "AEQ 062",
	"AFA 002", "AIC 601", "AIR 003", "Air 006", "APB 001", "ART 013",
	"ART 203", "EIC 100", "EIC 102", "EIC 112", "ETP 006", "MBB 002",
	"MBB 003", "MBB 601", "MIC 001", "MIC 004", "MIC 007", "MIR 004",
	"MPP 011", "MPP 101", "MPP 102", "MPP 104", "MPP 105", "MPP 214",
	"MPP 701", "RPB 104", "RPB 105", "RPB 601", "RPB 701",
}

var commonMalfunctions = []string{
	"Out Of Power",
	"Out of Order on ATLAS",
	"Out Of Service Done By Agent",
	"Reboot By Itself",
	"Screen Freeze",
}

var gateMalfunctions = []string{
	"After Validation Doors Remain Closed",
	"Broken Gate",
	"Concentrator Link Error",
	"Doors remain open",
	"Incorrect Configuration",
	"Red X",
	"SAM Error",
	"Validator Light Is Off",
	"Validator Link Error",
	"Validator Not Readable",
	"Validator Reboot By Itself",
}

var atimMalfunctions = []string{
	"ATIM Has Run Out of Change",
	"Bad Smiley",
	"Banknote Acceptance Faulty",
	"Banknote Cashbox: Full",
	"Banknote Cashbox: Unauthorized Withdrawal",
	"Banknote Payment: Communication Error",
	"Banknote Payment: Local/Remote Out Of Order",
	"CA01:002 Not Initialized",
	"Coin Payment: Coin Acceptor Failure",
	"Coin Payment: Coin Box Missing",
	"Coin Payment: Coinbox Failure",
	"Coin Payment: Coinbox Full",
	"Coin Payment: Deactivation",
	"Coin Payment: Jammed Coins",
	"Coin Payment: Unauthorized Cashbox Withdrawal",
	"CTD Link Failure",
	"Current Status",
	"Default from ATLAS",
	"Eagle Acceptor Issue",
	"Engine Defect",
	"EQ01:024 Outage Supervisory",
	"E-Ticket Distribution: Reading/Writing failure",
	"E-Ticket Distribution: Completely Empty",
	"E-Ticket Distribution: Jamming",
	"E-Ticket Distribution: KO",
	"E-Ticket Distribution: Stock 1 Empty",
	"E-Ticket Distribution: Stock 2 Empty",
	"Frozen POS",
	"Locker Issue",
	"Paper Empty",
	"Payment By Cash HS",
	"Payment Module Connection Error",
	"Payment Module is Busy",
	"Payment is approved Freezing Message",
	"POS Irruption",
	"Printer Jamming",
	"Printer link error",
	"Put The System Out of Order by SSUP",
	"Red light on banknote acceptor",
	"Reserve boxes are missing",
	"SAN Absent",
	"SSUP Default",
	"SSUP Link Failure",
	"Ticket Printer R/W Failure",
	"UPS Defect",
	"Use of banknotes returns to home screen",
	"Use of POS Returns to Home Screen",
}

// Impacts are the suggestions of the GATE impact input.
var Impacts = []string{
	"No Entry",
	"No Entry/Exit",
	"No Exit",
	"Unauthorized Entry/Exit",
}

// RepairProcesses are the suggestions of the repair process input.
var RepairProcesses = []string{
	"Acknowledged Alarm and Red Button",
	"AFA002",
	"Broken recycle",
	"Clean Sim Card",
	"Cleaning Printer, delete css.bin, Restart",
	"Concentration call",
	"Needs Conduent",
	needsThema,
	"Opening ATIM and closing",
	"Put USB",
	"Putting in service by SSUP",
	"Putting the banknote payment in service",
	"Reinstall Software",
	"Removing the jammed banknotes and restart",
	"Reset",
	"Restart",
	"Shutdown/Startup",
	"Test Coin parts",
	"Test the coin parts restart",
	"Testing the receipt printer",
	"Unplug X1",
}

// paymentRestrictions cannot be chosen for a GATE.
var paymentRestrictions = map[string]bool{
	model.ResultOnlyCard:      true,
	model.ResultOnlyCoins:     true,
	model.ResultOnlyBanknotes: true,
}

// Option is one final result chip.
type Option struct {
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// Catalog holds every choice list of the form for one device.
type Catalog struct {
	Reporters       []string       `json:"reporters"`
	Stations        []string       `json:"stations"`
	Devices         []model.Device `json:"devices"`
	Statuses        []string       `json:"statuses"`
	Assignees       []string       `json:"assignees"`
	FinalResults    []Option       `json:"finalResults"`
	AlarmCodes      []string       `json:"alarmCodes"`
	Malfunctions    []string       `json:"malfunctions"`
	Impacts         []string       `json:"impacts"`
	RepairProcesses []string       `json:"repairProcesses"`
}

// CatalogFor returns the choice lists as offered for device.
func CatalogFor(device model.Device) Catalog {
	options := make([]Option, 0, len(model.FinalResults))
	for _, v := range model.FinalResults {
		options = append(options, Option{Value: v, Disabled: optionDisabled(device, v)})
	}

	c := Catalog{
		Reporters:       Reporters,
		Stations:        model.Stations,
		Devices:         model.Devices,
		Statuses:        model.Statuses,
		Assignees:       model.Assignees,
		FinalResults:    options,
		Malfunctions:    Malfunctions(device),
		RepairProcesses: RepairProcesses,
		AlarmCodes:      []string{},
		Impacts:         []string{},
	}
	if device == model.DeviceATIM {
		c.AlarmCodes = AlarmCodes
	}
	if device == model.DeviceGATE {
		c.Impacts = Impacts
	}
	return c
}

// Malfunctions returns the sorted suggestions for device. Every device other
// than GATE gets the ATIM list.
func Malfunctions(device model.Device) []string {
	specific := atimMalfunctions
	if device == model.DeviceGATE {
		specific = gateMalfunctions
	}
	out := make([]string, 0, len(specific)+len(commonMalfunctions))
	out = append(out, specific...)
	out = append(out, commonMalfunctions...)
	sort.Strings(out)
	return out
}

func optionDisabled(device model.Device, option string) bool {
	return device == model.DeviceGATE && paymentRestrictions[option]
}
