package model

// Version is the released version of ammo.
const Version = "v0.3.0"

// AppName is shown in the title bar and in status line banners.
const AppName = "Unlimited Ammo"
