package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescDownloading = "Downloading"
	DescExtracting  = "Extracting"
)

// NewDownloadBar creates a byte-counting progress bar for archive downloads.
//
// GitHub branch archives are generated on the fly and usually carry no
// Content-Length, so a negative total switches the bar to spinner mode.
//
// Example:
//
//	bar := utils.NewDownloadBar(-1, os.Stderr)
//	defer bar.Finish()
//	io.Copy(io.MultiWriter(file, bar), body)
func NewDownloadBar(total int64, out io.Writer) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(DescDownloading),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts, progressbar.OptionThrottle(0))
	}

	return progressbar.NewOptions64(total, opts...)
}
