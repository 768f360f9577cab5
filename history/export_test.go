package history

// Exports for testing
var DateLayouts = dateLayouts

// SetUploadName fixes the generated upload filename.
func SetUploadName(u *Uploader, name string) {
	u.newName = func() string { return name }
}
