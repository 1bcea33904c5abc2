package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// filterFlags binds the record filter flags shared by query and summary.
type filterFlags struct {
	params domain.QueryParams
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.params.Account, "account", "a", "", "only records of this account")
	flags.StringVar(&f.params.Since, "since", "", "published on or after (YYYY-MM-DD or RFC 3339)")
	flags.StringVar(&f.params.Until, "until", "", "published before (YYYY-MM-DD or RFC 3339)")
	flags.StringVar(&f.params.Media, "media", "", "media type: image, video, carousel or link")
	flags.StringVar(&f.params.Hashtag, "hashtag", "", "only records carrying this hashtag")
	flags.StringVar(&f.params.Format, "format", "", "source format of the export")
}

func (f *filterFlags) spec() (domain.QuerySpec, error) {
	return f.params.Spec()
}
