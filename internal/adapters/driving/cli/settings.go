package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the configuration used by every command.

Settings are stored in config.toml in the configuration directory. Use
"settings keys" to list what can be set.`,
	Annotations: map[string]string{settingsOnlyAnnotation: ""},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Long: `Set a configuration value. The value is parsed by the type of the key;
lists are given comma separated.

Example:
  vcf-ingest settings set concat.chunk_size 250
  vcf-ingest settings set catalog.accepted_taxonomies 2697049,694009`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	section := func(name string) {
		cmd.Println(st.Title.Render("[" + name + "]"))
	}
	field := func(label string, value any) {
		cmd.Printf("  %s %v\n", st.Label.Render(label+":"), value)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	section("Project")
	field("Accession", settings.ProjectAccession)
	field("Directory", settings.ProjectDir)
	field("Ledger directory", settings.LedgerDir)
	cmd.Println()

	section("Catalog")
	field("Base URL", settings.Catalog.BaseURL)
	field("Page size", settings.Catalog.PageSize)
	field("Retries", settings.Catalog.RetryMax)
	field("Retry wait", fmt.Sprintf("%s - %s", settings.Catalog.RetryWaitMin, settings.Catalog.RetryWaitMax))
	field("Requests per second", settings.Catalog.RequestsPerSecond)
	field("Accepted taxonomies", orAll(settings.Catalog.AcceptedTaxonomies))
	cmd.Println()

	section("Transfer")
	field("Client", settings.Transfer.Client)
	field("Aspera client", settings.Transfer.AscpBinary)
	field("Key", orNotSet(settings.Transfer.AsperaKey))
	field("Remote", fmt.Sprintf("%s (port %d, %s)",
		settings.Transfer.User, settings.Transfer.Port, settings.Transfer.Bandwidth))
	field("Batch size", settings.Transfer.BatchSize)
	field("Attempts", settings.Transfer.MaxAttempts)
	field("Initial backoff", settings.Transfer.InitialBackoff)
	cmd.Println()

	section("Concat")
	field("Chunk size", settings.Concat.ChunkSize)
	field("Merge tool", settings.Concat.BcftoolsBinary)
	field("Workflow engine", settings.Concat.NextflowBinary)
	field("Workflow config", orNotSet(settings.Concat.NextflowConfig))
	field("Reference FASTA", orNotSet(settings.Concat.RefseqFasta))
	cmd.Println()

	section("Assembly check")
	if !settings.Check.IsConfigured() {
		field("Status", "not configured")
	} else {
		field("Checker", settings.Check.AssemblyChecker)
		field("Assembly report", settings.Check.AssemblyReport)
		field("Assembly FASTA", settings.Check.AssemblyFasta)
	}
	cmd.Println()

	section("Publish")
	if !settings.Publish.IsConfigured() {
		field("Status", "not configured")
	} else {
		field("Endpoint", settings.Publish.Endpoint)
		field("Bucket", settings.Publish.Bucket)
		field("Access key", maskSecret(settings.Publish.AccessKey))
		field("Secret key", maskSecret(settings.Publish.SecretKey))
		field("TLS", settings.Publish.UseSSL)
	}
	cmd.Println()

	cmd.Println(st.Muted.Render("Config file: " + settingsService.Path()))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	shown := value
	if isSecretKey(key) {
		shown = maskSecret(value)
	}
	cmd.Printf("%s = %s\n", key, shown)

	if _, err := settingsService.Get(); err != nil {
		st := newStyles(cmd.ErrOrStderr())
		cmd.PrintErrln(st.Warning.Render(fmt.Sprintf("warning: settings do not validate: %v", err)))
	}
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "_key") && strings.HasPrefix(key, "publish.")
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func orAll(taxonomies []string) string {
	if len(taxonomies) == 0 {
		return "(all)"
	}
	return strings.Join(taxonomies, ", ")
}

// maskSecret masks a credential for display.
func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
