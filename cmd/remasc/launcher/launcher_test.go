package launcher

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/opera-remasc/opera"
)

func minerAt(n uint64) common.Address {
	return common.BytesToAddress([]byte{0xa0, byte(n)})
}

func fees(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

// writeBlockFile writes 15 blocks paying 21000 each in blocks 1..5. Block 6
// includes two siblings of height 5.
func writeBlockFile(t *testing.T, dir string) string {
	t.Helper()

	f := blockFile{
		Genesis: map[common.Address]*math.HexOrDecimal256{minerAt(1): fees(1)},
	}
	for n := uint64(1); n <= 15; n++ {
		paid := int64(0)
		if n <= 5 {
			paid = 21000
		}
		b := blockJSON{headerJSON: headerJSON{
			Number: n,
			Hash:   common.BytesToHash([]byte{0xc0, byte(n)}),
			Miner:  minerAt(n),
			Fees:   fees(paid),
		}}
		if n == 6 {
			for i := 0; i < 2; i++ {
				b.Siblings = append(b.Siblings, headerJSON{
					Number: 5,
					Hash:   common.BytesToHash([]byte{0xd0, byte(i)}),
					Miner:  common.BytesToAddress([]byte{0xb0, byte(i)}),
					Fees:   fees(21000),
				})
			}
		}
		f.Blocks = append(f.Blocks, b)
	}

	raw, err := json.Marshal(&f)
	require.NoError(t, err)
	path := filepath.Join(dir, "blocks.json")
	require.NoError(t, ioutil.WriteFile(path, raw, 0o644))
	return path
}

// run executes the launcher with the given arguments and decodes its report.
func run(t *testing.T, args ...string) (report, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &errOut

	err := a.Run(append([]string{"opera-remasc", "--log.verbosity", "1"}, args...))
	var rep report
	if err == nil && out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &rep), out.String())
	}
	return rep, err
}

func TestReplay_memory(t *testing.T) {
	dir := tempDir(t)
	blocks := writeBlockFile(t, dir)
	watch := common.HexToAddress("0x00000000000000000000000000000000000000ff")

	rep, err := run(t, "--preset", "memory", "replay", "--blocks", blocks, "--watch", watch.Hex())
	require.NoError(t, err)

	rules := opera.FakeNetRules()
	require.Equal(t, "fake", rep.Network)
	require.EqualValues(t, 15, rep.LastBlock)
	require.Equal(t, 1, rep.Settled)
	require.Equal(t, "84000", rep.Reward)
	require.Equal(t, "1008", rep.Burned)
	require.Equal(t, 10, rep.Pending)
	require.Equal(t, 0, rep.Siblings)

	require.Equal(t, "4200", rep.Balances[rules.Remasc.ProtocolFeeAddress.Hex()])
	require.Equal(t, "85008", rep.Balances[rules.Remasc.FeeHolderAddress.Hex()])
	require.Equal(t, "1", rep.Balances[minerAt(1).Hex()], "genesis balance kept")
	require.Equal(t, "5040", rep.Balances[minerAt(5).Hex()])
	require.Equal(t, "1680", rep.Balances[minerAt(6).Hex()])
	require.Equal(t, "4536", rep.Balances[common.BytesToAddress([]byte{0xb0, 0}).Hex()])
	require.Equal(t, "0", rep.Balances[watch.Hex()])
}

func TestReplay_persistsState(t *testing.T) {
	dir := tempDir(t)
	blocks := writeBlockFile(t, dir)
	datadir := filepath.Join(dir, "data")

	replayed, err := run(t, "--datadir", datadir, "--preset", "lite", "replay", "--blocks", blocks)
	require.NoError(t, err)

	state, err := run(t, "--datadir", datadir, "--preset", "lite", "state", "--watch", minerAt(5).Hex())
	require.NoError(t, err)
	require.Equal(t, replayed.StateHash, state.StateHash)
	require.Equal(t, replayed.LastBlock, state.LastBlock)
	require.Equal(t, "5040", state.Balances[minerAt(5).Hex()])

	// replaying the same file again hits the persisted height
	_, err = run(t, "--datadir", datadir, "--preset", "lite", "replay", "--blocks", blocks)
	require.Error(t, err)
}

func TestReplay_requiresBlocks(t *testing.T) {
	_, err := run(t, "--preset", "memory", "replay")
	require.Error(t, err)
}

func TestState_rejectsMemory(t *testing.T) {
	_, err := run(t, "--preset", "memory", "state")
	require.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out

	require.NoError(t, a.Run([]string{"opera-remasc", "--preset", "memory", "--network", "test", "rules"}))

	var rules opera.Rules
	require.NoError(t, json.Unmarshal(out.Bytes(), &rules))
	require.Equal(t, opera.TestNetRules(), rules)
}

func TestLogLevels(t *testing.T) {
	require.Equal(t, logrus.FatalLevel, logrusLevel(-1))
	require.Equal(t, logrus.FatalLevel, logrusLevel(0))
	require.Equal(t, logrus.ErrorLevel, logrusLevel(1))
	require.Equal(t, logrus.InfoLevel, logrusLevel(3))
	require.Equal(t, logrus.TraceLevel, logrusLevel(9))

	require.Equal(t, log.LvlCrit, gethLevel(0))
	require.Equal(t, log.LvlInfo, gethLevel(3))
	require.Equal(t, log.LvlTrace, gethLevel(7))
}

func TestSetupLogging_forwardsEngineLogs(t *testing.T) {
	var out bytes.Buffer
	_, err := setupLogging(LoggingConfig{Verbosity: 3, Format: "json"}, "test-node", &out)
	require.NoError(t, err)
	defer log.Root().SetHandler(log.DiscardHandler())

	log.New("module", "remasc").Info("Settled height", "height", 5)
	log.Debug("filtered out")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "Settled height", entry["msg"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "remasc", entry["module"])
	require.Equal(t, "test-node", entry["instance"])
	require.EqualValues(t, 5, entry["height"])
}

func TestSetupLogging_unknownFormat(t *testing.T) {
	_, err := setupLogging(LoggingConfig{Format: "xml"}, "test-node", ioutil.Discard)
	require.Error(t, err)
}
