// Command fetchparent connects to a live parent-chain node, fetches a
// block by hash, and prints the serialized CoinbaseMerkleProof an
// AuxPow for that block's coinbase would carry: the coinbase
// transaction itself, the parent block's hash, and the coinbase's
// Merkle branch and index.
// It is a thin adaptation of btcnode/btcnode.go's peer client, wired
// to produce auxpow fixtures instead of importable block records.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/blkchain/auxpow"
	flags "github.com/jessevdk/go-flags"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog"
)

type options struct {
	Addr    string `short:"a" long:"addr" description:"parent node address (host:port)" required:"true"`
	Hash    string `short:"b" long:"block" description:"parent block hash, big-endian hex" required:"true"`
	Timeout int    `short:"t" long:"timeout" description:"connection/response timeout in seconds" default:"30"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	auxpow.UseLogger(btclog.NewBackend(os.Stderr).Logger("FTCH"))

	tmout := time.Duration(opts.Timeout) * time.Second

	blockHash, err := chainhash.NewHashFromStr(opts.Hash)
	if err != nil {
		auxpow.Log.Errorf("bad block hash: %v", err)
		os.Exit(1)
	}

	node, err := connectToNode(opts.Addr, tmout)
	if err != nil {
		auxpow.Log.Errorf("connect: %v", err)
		os.Exit(1)
	}
	defer node.Close()

	block, err := node.getBlock(*blockHash, tmout)
	if err != nil {
		auxpow.Log.Errorf("get block: %v", err)
		os.Exit(1)
	}

	proof, err := coinbaseProofFromBlock(block)
	if err != nil {
		auxpow.Log.Errorf("build proof: %v", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := proof.BinWrite(&buf); err != nil {
		auxpow.Log.Errorf("serialize proof: %v", err)
		os.Exit(1)
	}
	raw := buf.Bytes()

	fmt.Println(hex.EncodeToString(raw))
}

// fetchNode is a minimal outbound peer that retrieves exactly one
// block, the single-purpose subset of btcnode/btcnode.go's btcNode.
type fetchNode struct {
	*peer.Peer
	blockCh chan *wire.MsgBlock
}

func connectToNode(addr string, tmout time.Duration) (*fetchNode, error) {
	result := &fetchNode{
		blockCh: make(chan *wire.MsgBlock),
	}

	verackCh := make(chan bool)
	peerCfg := &peer.Config{
		DisableRelayTx:   true,
		UserAgentName:    "auxpow-fetchparent",
		UserAgentVersion: "0.0.1",
		ChainParams:      &chaincfg.MainNetParams,
		TrickleInterval:  time.Second * 10,
		Listeners: peer.MessageListeners{
			OnVerAck: func(p *peer.Peer, msg *wire.MsgVerAck) {
				verackCh <- true
			},
			OnBlock: func(_ *peer.Peer, msg *wire.MsgBlock, buf []byte) {
				result.blockCh <- msg
			},
		},
	}

	p, err := peer.NewOutboundPeer(peerCfg, addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.Dial("tcp", p.Addr())
	if err != nil {
		return nil, err
	}
	p.AssociateConnection(conn)

	select {
	case <-verackCh:
	case <-time.After(tmout):
		p.Disconnect()
		return nil, fmt.Errorf("fetchparent: connection timeout")
	}
	result.Peer = p

	return result, nil
}

func (n *fetchNode) getBlock(hash chainhash.Hash, tmout time.Duration) (*wire.MsgBlock, error) {
	gdmsg := wire.NewMsgGetData()
	gdmsg.AddInvVect(wire.NewInvVect(wire.InvTypeWitnessBlock, &hash))
	n.QueueMessage(gdmsg, nil)

	select {
	case block := <-n.blockCh:
		return block, nil
	case <-time.After(tmout):
		return nil, fmt.Errorf("fetchparent: timed out waiting for block")
	}
}

func (n *fetchNode) Close() error {
	n.Disconnect()
	return nil
}

// coinbaseProofFromBlock builds a CoinbaseMerkleProof for block's
// coinbase transaction, grounding its Merkle-branch extraction on
// btcd/blockchain.BuildMerkleTreeStore the way
// core/types/btcd_merkle_utils.go does for merged-mining coinbases.
func coinbaseProofFromBlock(block *wire.MsgBlock) (*auxpow.CoinbaseMerkleProof, error) {
	btcTxs := make([]*btcutil.Tx, len(block.Transactions))
	for i, tx := range block.Transactions {
		btcTxs[i] = btcutil.NewTx(tx)
	}

	tree := blockchain.BuildMerkleTreeStore(btcTxs, false)
	branch := extractCoinbaseBranch(tree, len(btcTxs))

	coinbaseTx, err := coinbaseTxFromMsgTx(block.Transactions[0])
	if err != nil {
		return nil, err
	}

	blockHash := block.BlockHash()
	var parentHash auxpow.Hash256
	copy(parentHash[:], blockHash[:])

	return &auxpow.CoinbaseMerkleProof{
		Tx:           coinbaseTx,
		ParentHash:   parentHash,
		Branch:       branch,
		Index:        0,
		CoinbaseKind: auxpow.CoinbaseStandard,
	}, nil
}

// extractCoinbaseBranch walks a btcd-built Merkle tree collecting the
// right-sibling hash at every level above the coinbase (index 0 is
// always the left child at every level), mirroring
// core/types/btcd_merkle_utils.go's ExtractMerkleBranch.
func extractCoinbaseBranch(tree []*chainhash.Hash, txCount int) auxpow.MerkleBranch {
	if len(tree) == 0 || txCount == 0 {
		return nil
	}

	var branch auxpow.MerkleBranch

	// BuildMerkleTreeStore lays every level out at a power-of-two width,
	// leaving nil where a level has fewer nodes.
	index := 0
	levelSize := 1
	for levelSize < txCount {
		levelSize <<= 1
	}
	offset := 0

	for levelSize > 1 {
		siblingIndex := index ^ 1
		if siblingIndex < levelSize && offset+siblingIndex < len(tree) && tree[offset+siblingIndex] != nil {
			var h auxpow.Hash256
			copy(h[:], tree[offset+siblingIndex][:])
			branch = append(branch, h)
		} else if offset+index < len(tree) && tree[offset+index] != nil {
			var h auxpow.Hash256
			copy(h[:], tree[offset+index][:])
			branch = append(branch, h)
		}

		offset += levelSize
		levelSize = (levelSize + 1) / 2
		index = index / 2
	}

	return branch
}

func coinbaseTxFromMsgTx(mtx *wire.MsgTx) (auxpow.CoinbaseTx, error) {
	if len(mtx.TxIn) != 1 {
		return nil, fmt.Errorf("fetchparent: coinbase must have exactly one input, got %d", len(mtx.TxIn))
	}

	in := mtx.TxIn[0]
	txIn := auxpow.TxIn{
		PrevOut: auxpow.OutPoint{
			N: in.PreviousOutPoint.Index,
		},
		ScriptSig: in.SignatureScript,
		Sequence:  in.Sequence,
	}
	copy(txIn.PrevOut.Hash[:], in.PreviousOutPoint.Hash[:])

	touts := make(auxpow.TxOutList, 0, len(mtx.TxOut))
	for _, out := range mtx.TxOut {
		touts = append(touts, &auxpow.TxOut{
			Value:        out.Value,
			ScriptPubKey: out.PkScript,
		})
	}

	return &auxpow.StandardCoinbaseTx{
		Version:  uint32(mtx.Version),
		TxIn:     txIn,
		TxOuts:   touts,
		LockTime: uint32(mtx.LockTime),
	}, nil
}
