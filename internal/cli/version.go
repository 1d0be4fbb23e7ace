package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/program-tray/program-tray/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (%s)\n", styleBrand.Render("program-tray"), styleVersion.Render(buildinfo.Short()), buildinfo.Codename)
		printField("Commit", buildinfo.CommitHash)
		printField("Built", buildinfo.BuildDate)
		printField("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH)
		printField("Go", runtime.Version())
	},
}
