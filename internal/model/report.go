package model

import "time"

type Device string

const (
	DeviceATIM  Device = "ATIM"
	DeviceGATE  Device = "GATE"
	DeviceATLAS Device = "ATLAS"
)

const (
	StatusSolved       = "Solved"
	StatusInProgress   = "In Progress"
	StatusRejected     = "Rejected"
	StatusOutOfService = "Out Of Service"
)

const (
	AssigneeTraxis   = "TRAXIS ENGINEERING"
	AssigneeThema    = "THEMA"
	AssigneeConduent = "Conduent"
)

// Final result options. OK and Out of Service are mutually exclusive.
const (
	ResultOK             = "OK"
	ResultOutOfService   = "Out of Service"
	ResultOnlyCard       = "Only Accepts Card"
	ResultOnlyCoins      = "Only Accepts Coins"
	ResultOnlyBanknotes  = "Only Accepts Banknotes"
	FinalResultSeparator = ", "
)

// Report is one field report about one device. A submission with several tags
// produces several reports.
type Report struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Seq           int64     `gorm:"index;not null" json:"-"`
	ReportBy      string    `gorm:"size:128;not null" json:"reportBy"`
	ReportedDate  string    `gorm:"size:64;not null" json:"reportedDate"`
	Station       string    `gorm:"size:32;not null" json:"station"`
	Device        Device    `gorm:"size:16;not null" json:"device"`
	Tag           string    `gorm:"size:64;not null" json:"tag"`
	Status        string    `gorm:"size:32" json:"status"`
	AlarmCode     string    `gorm:"size:64" json:"alarmCode"`
	Malfunction   string    `json:"malfunction"`
	Impact        string    `gorm:"size:64" json:"impact"`
	RepairProcess string    `json:"repairProcess"`
	AssignedTo    string    `gorm:"size:64" json:"assignedTo"`
	FinalResult   string    `json:"finalResult"`
	Comments      string    `json:"comments"`
	Synced        bool      `gorm:"index;not null;default:false" json:"synced"`
	CreatedAt     time.Time `json:"-"`
}

// Stations lists the line's station codes in track order.
var Stations = []string{
	"1(NRS)", "2(DMK)", "3(VNZ)", "4(AGS)", "5(SNT)", "6(PNP)", "7(PPF)",
	"8(EFK)", "9(FLM)", "10(ANP)", "11(MRT)", "12(VLG)", "13(NEL)",
}

var (
	Devices      = []Device{DeviceATIM, DeviceGATE, DeviceATLAS}
	Statuses     = []string{StatusSolved, StatusInProgress, StatusRejected, StatusOutOfService}
	Assignees    = []string{AssigneeTraxis, AssigneeThema, AssigneeConduent}
	FinalResults = []string{ResultOK, ResultOutOfService, ResultOnlyCard, ResultOnlyCoins, ResultOnlyBanknotes}
)
