package models

// PlatformType enumerates the kinds of hardware a platform can be.
type PlatformType string

const (
	PlatformConsole  PlatformType = "console"
	PlatformHandheld PlatformType = "handheld"
	PlatformPC       PlatformType = "pc"
	PlatformMobile   PlatformType = "mobile"
	PlatformOther    PlatformType = "other"
)

// PlatformTypes lists every accepted platform type.
var PlatformTypes = []PlatformType{PlatformConsole, PlatformHandheld, PlatformPC, PlatformMobile, PlatformOther}

// Platform represents a gaming platform.
type Platform struct {
	Base
	Name         string `gorm:"size:100;unique;not null"`
	Manufacturer string `gorm:"size:100"`
	ReleaseYear  *int
	Type         PlatformType `gorm:"size:20;not null;default:'console'"`
	LogoURL      string       `gorm:"size:512"`
}
