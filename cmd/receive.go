package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kiloframe/beam/internal/config"
	"github.com/kiloframe/beam/internal/controller"
	"github.com/kiloframe/beam/internal/signaling"
	"github.com/kiloframe/beam/internal/transfer"
	"github.com/kiloframe/beam/internal/ui"
	"github.com/kiloframe/beam/internal/utils"
	"github.com/spf13/cobra"
)

var (
	flagReceiverSignalingURL string
	flagReceiverSTUN         string
	flagReceiverTURN         string
	flagReceiverTURNUser     string
	flagReceiverTURNPass     string
	flagOutputDir            string
	flagRequirePin           string
)

var receiveCmd = &cobra.Command{
	Use:     "receive",
	Aliases: []string{"r"},
	Short:   "Wait for a peer to send files",
	Long: `The receive command connects to the signaling server, prints the peer id a
sender should dial, and waits for an incoming offer.

Examples:
  beam receive
  beam receive --output-dir ~/Downloads
  beam receive --stun stun:stun.custom.com:19302`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return receiveFiles()
	},
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().StringVarP(&flagReceiverSignalingURL, "signaling-url", "d", "", "Custom signaling server URL")
	receiveCmd.Flags().StringVarP(&flagReceiverSTUN, "stun", "s", "", "Custom STUN server")
	receiveCmd.Flags().StringVarP(&flagReceiverTURN, "turn", "t", "", "Custom TURN server")
	receiveCmd.Flags().StringVarP(&flagReceiverTURNUser, "turn-user", "u", "", "TURN server username")
	receiveCmd.Flags().StringVarP(&flagReceiverTURNPass, "turn-pass", "p", "", "TURN server password")
	receiveCmd.Flags().StringVarP(&flagOutputDir, "output-dir", "o", ".", "Directory to write received files to")
	receiveCmd.Flags().StringVar(&flagRequirePin, "require-pin", "", "PIN a sender must confirm before this session accepts an offer (reserved, not yet enforced)")
}

func receiveFiles() error {
	cfg, err := config.Load(config.Options{
		SignalingURL: flagReceiverSignalingURL,
		STUNServer:   flagReceiverSTUN,
		TURNServer:   flagReceiverTURN,
		TURNUser:     flagReceiverTURNUser,
		TURNPass:     flagReceiverTURNPass,
	})
	if err != nil {
		return err
	}

	stop := ui.RunConnectionSpinner("Connecting to signaling server...")
	adapter, self, err := dialSignaling(cfg)
	stop()
	if err != nil {
		return err
	}

	ui.RenderSessionInfo(self.ID)

	stop = ui.RunWaitingSpinner("Waiting for a sender...")
	offerMsg, err := awaitOffer(adapter)
	stop()
	if err != nil {
		return err
	}

	rc, err := controller.NewReceiveController(offerMsg.SessionID, offerMsg.PeerID, offerMsg.SDP, adapter, peerOptions(cfg))
	if err != nil {
		return transfer.NewError("start receive session", err)
	}
	defer rc.Close()

	if flagRequirePin != "" {
		rc.RequirePin(flagRequirePin, 3)
	}

	go reportStatus(rc.ListenStatus(), rc.ListenError())

	descriptors, err := rc.ListenFiles()
	if err != nil {
		return transfer.NewError("await file list", err)
	}

	items := make([]ui.FileTableItem, len(descriptors))
	ids := make(map[string]struct{}, len(descriptors))
	for i, d := range descriptors {
		items[i] = ui.FileTableItem{Index: i + 1, Name: d.Name, Size: int64(d.Size), Type: d.FileType}
		ids[d.ID] = struct{}{}
	}
	fmt.Println()
	ui.RenderFileTable(items)

	if !promptConsent() {
		ui.PrintWarning("Transfer declined")
		return rc.Decline()
	}

	if err := rc.SendSelection(ids); err != nil {
		return transfer.NewError("send selection", err)
	}

	var receivedSize int64
	var receivedCount int
	start := time.Now()
	for fr := range rc.ListenReceiving() {
		if err := receiveOneFile(fr); err != nil {
			ui.PrintErrorf("%s: %v", fr.DescriptorName, err)
			continue
		}
		receivedSize += int64(fr.DeclaredSize)
		receivedCount++
		ui.PrintSuccessf("received %s", fr.DescriptorName)
	}

	transfer.RenderSummary(receivedCount, receivedSize, time.Since(start))
	return nil
}

func awaitOffer(adapter *signaling.Adapter) (signaling.ServerMessage, error) {
	for msg := range adapter.Inbound() {
		if msg.Kind == signaling.KindOffer {
			return msg, nil
		}
		if msg.Kind == signaling.KindError {
			return signaling.ServerMessage{}, fmt.Errorf("signaling error: code %d", msg.Code)
		}
	}
	return signaling.ServerMessage{}, fmt.Errorf("signaling connection closed before an offer arrived")
}

func promptConsent() bool {
	fmt.Print("\nAccept this transfer? [Y/n] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "" || line == "y" || line == "yes"
}

func receiveOneFile(fr *transfer.FileReceiver) error {
	path := utils.GetUniqueFilename(filepath.Join(flagOutputDir, fr.DescriptorName))

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	return fr.Receive(func(b []byte) error {
		_, err := out.Write(b)
		return err
	})
}
