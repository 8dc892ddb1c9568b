package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-raga/config"
	"go-raga/debug"
	"go-raga/errs"
	"go-raga/midi"
	"go-raga/raga"
)

var (
	configPath string
	flagRaga   string
	flagMode   string
	flagPort   string
	flagKit    string
	flagSeed   uint64
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errs.Describe(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "go-raga",
	Short: "Generative raga performance over MIDI",
	Long: `go-raga improvises on a raga and plays it to a MIDI synth.

Melody follows the raga's aroha, avroha and pakad; rhythm mode adds a
drum kit, fills and tihais.

Examples:
  go-raga play --raga Yaman --mode rhythm --port "IAC Driver Bus 1"
  go-raga ragas
  go-raga suggest 21
  go-raga ports --watch
  go-raga dump --raga Bhairav --ticks 64 --seed 7`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ragasCmd = &cobra.Command{
	Use:   "ragas [name]",
	Short: "List the raga library, or show one raga",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRagas,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [hour]",
	Short: "Ragas for an hour of the day (default: now)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSuggest,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	RunE:  runPorts,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/go-raga/config.json)")
	pf.StringVarP(&flagRaga, "raga", "r", "", "raga name (default: suggested for the hour)")
	pf.StringVarP(&flagMode, "mode", "m", "", "ambient, rhythm or interaction")
	pf.StringVarP(&flagPort, "port", "p", "", "MIDI output port")
	pf.StringVar(&flagKit, "kit", "", "drum kit: "+strings.Join(midi.KitNames(), ", "))
	pf.Uint64Var(&flagSeed, "seed", 0, "random seed (0: from the clock)")
	pf.BoolVar(&flagDebug, "debug", false, "log to ~/.config/go-raga/debug.log")

	portsCmd.Flags().Bool("watch", false, "keep watching for ports coming and going")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(ragasCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(portsCmd)
}

// loadConfig layers file, .env, environment and flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("raga") {
		cfg.Performance.Raga = flagRaga
	}
	if flags.Changed("mode") {
		cfg.Performance.Mode = strings.ToLower(flagMode)
	}
	if flags.Changed("port") {
		cfg.Output.PortName = flagPort
	}
	if flags.Changed("kit") {
		cfg.Output.Kit = flagKit
	}
	if flags.Changed("seed") {
		cfg.Performance.Seed = flagSeed
	}
	if flags.Changed("debug") {
		cfg.Debug = flagDebug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func loadLibrary(cfg *config.Config) (*raga.Library, error) {
	if cfg.RagaLibrary == "" {
		return raga.Builtin(), nil
	}
	return raga.LoadFile(cfg.RagaLibrary)
}

// pickRaga returns the configured raga, else the first one suggested for
// the hour, else the first in the library.
func pickRaga(cfg *config.Config, lib *raga.Library, now time.Time) (*raga.Raga, error) {
	if cfg.Performance.Raga != "" {
		return lib.Find(cfg.Performance.Raga)
	}
	if ragas := lib.SuggestRagas(now.Hour()); len(ragas) > 0 {
		return ragas[0], nil
	}
	return lib.Find(lib.Names()[0])
}

func runRagas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		r, err := lib.Find(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", r.Name)
		fmt.Fprintf(out, "  mood     %s\n", r.Mood)
		fmt.Fprintf(out, "  time     %s\n", r.TimeSlot)
		fmt.Fprintf(out, "  aroha    %s\n", sargam(r.Ascending))
		fmt.Fprintf(out, "  avroha   %s\n", sargam(r.Descending))
		for _, m := range r.Motifs {
			fmt.Fprintf(out, "  pakad    %s\n", sargam(m))
		}
		fmt.Fprintf(out, "  vadi     %s\n", raga.SwaraName(r.Emphasis()))
		fmt.Fprintf(out, "  samvadi  %s\n", raga.SwaraName(r.SecondaryEmphasis()))
		return nil
	}

	for _, name := range lib.Names() {
		r, _ := lib.Find(name)
		fmt.Fprintf(out, "%-20s %-22s %s\n", r.Name, r.TimeSlot, r.Mood)
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}

	hour := time.Now().Hour()
	if len(args) == 1 {
		hour, err = strconv.Atoi(args[0])
		if err != nil || hour < 0 || hour > 23 {
			return errs.Config(fmt.Sprintf("bad hour %q", args[0]), "Hour must be 0-23")
		}
	}

	slot, ok := lib.Suggest(hour)
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "no ragas for %02d:00\n", hour)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", slot.TimeSlot)
	for _, m := range slot.Moods {
		for _, e := range m.Ragas {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", e.Name, m.Name)
		}
	}
	return nil
}

func sargam(pitches []int) string {
	names := make([]string, len(pitches))
	for i, p := range pitches {
		names[i] = raga.SwaraName(p)
	}
	return strings.Join(names, " ")
}
