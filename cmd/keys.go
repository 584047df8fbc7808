package cmd

import (
	"fmt"

	"P3DrumMachine/model"

	"github.com/spf13/cobra"
)

var (
	keysLow      int
	keysHigh     int
	keysFifths   bool
	keysChannel  uint8
	keysVelocity uint8
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the performance keyboard with MIDI messages",
	Long: `打印 Keys 面板的音符 (名称、频率、相对中央C的半音偏移和 note-on 字节)。
--fifths 打印五度圈面板的十二个调。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if keysChannel > 15 {
			return fmt.Errorf("midi channel must be 0-15, got %d", keysChannel)
		}

		if keysFifths {
			for _, k := range model.CircleOfFifths() {
				root := model.NewMusicalNote(int(k.MIDIRootNote()))
				fmt.Fprintf(out, "%2d  %-9s  root %-4s  % X\n",
					k.Position, k.DisplayName(), root.Name, []byte(root.NoteOn(keysChannel, keysVelocity)))
			}
			return nil
		}

		notes := model.KeyRange(keysLow, keysHigh)
		if len(notes) == 0 {
			return fmt.Errorf("empty key range %d..%d", keysLow, keysHigh)
		}
		for _, n := range notes {
			kind := "white"
			if n.IsBlackKey {
				kind = "black"
			}
			fmt.Fprintf(out, "%3d  %-4s  %-5s  %8.2f Hz  %+3.0f st  % X\n",
				n.MIDINote, n.Name, kind, n.Frequency(), n.PitchShiftSemitones(),
				[]byte(n.NoteOn(keysChannel, keysVelocity)))
		}

		fmt.Fprintln(out)
		for _, msg := range model.DefaultMPEParameters().Messages(keysChannel) {
			fmt.Fprintf(out, "mpe  %-40s  % X\n", msg.String(), []byte(msg))
		}
		return nil
	},
}

func init() {
	keysCmd.Flags().IntVar(&keysLow, "low", model.MiddleC, "lowest MIDI note")
	keysCmd.Flags().IntVar(&keysHigh, "high", model.MiddleC+12, "highest MIDI note")
	keysCmd.Flags().BoolVar(&keysFifths, "fifths", false, "print the circle of fifths instead")
	keysCmd.Flags().Uint8Var(&keysChannel, "channel", 0, "MIDI channel 0-15")
	keysCmd.Flags().Uint8Var(&keysVelocity, "velocity", 100, "note-on velocity")
	rootCmd.AddCommand(keysCmd)
}
