package component

type LauncherTag struct{}

var LauncherTagComponent = NewComponent[LauncherTag]()

type WallTag struct{}

var WallTagComponent = NewComponent[WallTag]()
