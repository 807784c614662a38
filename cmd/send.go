package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kiloframe/beam/internal/config"
	"github.com/kiloframe/beam/internal/controller"
	"github.com/kiloframe/beam/internal/files"
	"github.com/kiloframe/beam/internal/protocol"
	"github.com/kiloframe/beam/internal/transfer"
	"github.com/kiloframe/beam/internal/ui"
	"github.com/spf13/cobra"
)

var (
	flagSignalingURL string
	flagSTUN         string
	flagTURN         string
	flagTURNUser     string
	flagTURNPass     string
	flagRelay        bool
	flagPin          string
)

var sendCmd = &cobra.Command{
	Use:     "send <peer-id> <file>...",
	Aliases: []string{"s"},
	Short:   "Send files to a peer",
	Long: `Send one or more files directly to a peer over a WebRTC data channel.

Examples:
  beam send a1b2c3d4 report.pdf
  beam send a1b2c3d4 photos/
  beam send --relay a1b2c3d4 video.mp4`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendFiles(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&flagSignalingURL, "signaling-url", "d", "", "Custom signaling server URL")
	sendCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	sendCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	sendCmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	sendCmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	sendCmd.Flags().BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
	sendCmd.Flags().StringVar(&flagPin, "pin", "", "PIN the receiver is expected to confirm (reserved, not yet enforced)")
}

func sendFiles(peerID string, paths []string) error {
	stop := ui.RunSpinner("Validating files...")
	sources, err := files.Prepare(paths)
	stop()
	if err != nil {
		return err
	}

	displayFileTable(sources)

	cfg, err := config.Load(config.Options{
		SignalingURL: flagSignalingURL,
		STUNServer:   flagSTUN,
		TURNServer:   flagTURN,
		TURNUser:     flagTURNUser,
		TURNPass:     flagTURNPass,
		ForceRelay:   flagRelay,
	})
	if err != nil {
		return err
	}
	if cfg.ForceRelay && cfg.GetTURNServers() == nil {
		return fmt.Errorf("cannot force relay mode without a TURN server configured")
	}

	stop = ui.RunConnectionSpinner("Connecting to signaling server...")
	adapter, _, err := dialSignaling(cfg)
	stop()
	if err != nil {
		return err
	}

	sc, err := controller.NewSendController(peerID, toDescriptors(sources), adapter, peerOptions(cfg))
	if err != nil {
		return transfer.NewError("start send session", err)
	}
	defer sc.Close()

	if flagPin != "" {
		sc.SendPin(flagPin)
	}

	go reportStatus(sc.ListenStatus(), sc.ListenError())

	stop = ui.RunWaitingSpinner(fmt.Sprintf("Waiting for %s to accept...", peerID))
	selected, err := sc.ListenSelectedFiles()
	stop()
	if err != nil {
		return transfer.NewError("await selection", err)
	}
	if len(selected) == 0 {
		ui.PrintWarning("Peer declined the transfer")
		return nil
	}

	byID := make(map[string]files.Source, len(sources))
	var sentSize int64
	var sentCount int
	for _, s := range sources {
		byID[s.Descriptor.ID] = s
	}

	start := time.Now()
	for id := range selected {
		src, ok := byID[id]
		if !ok {
			continue
		}
		if err := sendOneFile(sc, src); err != nil {
			ui.PrintErrorf("%s: %v", src.Descriptor.Name, err)
			continue
		}
		sentSize += int64(src.Descriptor.Size)
		sentCount++
		ui.PrintSuccessf("sent %s", src.Descriptor.Name)
	}

	if err := sc.Finish(); err != nil {
		return err
	}

	transfer.RenderSummary(sentCount, sentSize, time.Since(start))
	return nil
}

func sendOneFile(sc *controller.SendController, src files.Source) error {
	f, err := os.Open(src.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	fs, err := sc.SendFile(src.Descriptor.ID)
	if err != nil {
		return err
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if sendErr := fs.Send(append([]byte(nil), buf[:n]...)); sendErr != nil {
				fs.Close()
				return sendErr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fs.Close()
			return err
		}
	}

	fs.Close()
	return nil
}

func toDescriptors(sources []files.Source) []protocol.FileDescriptor {
	descs := make([]protocol.FileDescriptor, len(sources))
	for i, s := range sources {
		descs[i] = s.Descriptor
	}
	return descs
}

func displayFileTable(sources []files.Source) {
	items := make([]ui.FileTableItem, len(sources))
	for i, s := range sources {
		items[i] = ui.FileTableItem{Index: i + 1, Name: s.Descriptor.Name, Size: int64(s.Descriptor.Size), Type: s.Descriptor.FileType}
	}
	fmt.Println()
	ui.RenderFileTable(items)
}

func reportStatus(status <-chan transfer.Status, errs <-chan transfer.FileError) {
	for {
		select {
		case st, ok := <-status:
			if !ok {
				return
			}
			switch st.Kind {
			case transfer.StatusError:
				ui.PrintError(st.Message)
			case transfer.StatusFinished:
				ui.PrintSuccess("transfer finished")
			}
		case fe, ok := <-errs:
			if !ok {
				return
			}
			ui.PrintErrorf("%s: %s", fe.FileID, fe.Message)
		}
	}
}
