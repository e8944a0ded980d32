package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// infoPlistTemplate is the minimal property list written into every bundle
// so Finder treats the directory as an application.
const infoPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>{{.Name}}</string>
	<key>CFBundleDisplayName</key>
	<string>{{.Name}}</string>
	<key>CFBundleIdentifier</key>
	<string>org.vintner.wrapper.{{.Name}}</string>
	<key>CFBundleExecutable</key>
	<string>vintner-launcher</string>
	<key>CFBundlePackageType</key>
	<string>APPL</string>
	<key>CFBundleInfoDictionaryVersion</key>
	<string>6.0</string>
	<key>VintnerEngine</key>
	<string>{{.Engine}}</string>
	<key>VintnerProgram</key>
	<string>{{.Program}}</string>
</dict>
</plist>
`

var plistTmpl = template.Must(template.New("info.plist").Parse(infoPlistTemplate))

func writeInfoPlist(bundle string, w Wrapper) error {
	path := filepath.Join(bundle, "Contents", "Info.plist")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write Info.plist: %w", err)
	}
	defer f.Close()

	if err := plistTmpl.Execute(f, w); err != nil {
		return fmt.Errorf("render Info.plist: %w", err)
	}
	return nil
}
