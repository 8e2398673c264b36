// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package blockfrost implements the ledger query and submission interfaces
// over a Blockfrost compatible HTTP indexer.
package blockfrost

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/leafstake/leafstake/ledger"
	"github.com/leafstake/leafstake/log"
)

var logger = log.WithContext("pkg", "blockfrost")

var (
	ErrNotFound     = errors.New("not found")
	ErrNot200Status = errors.New("not 200 status code")
)

const (
	pageSize            = 100
	defaultPollInterval = 5 * time.Second
)

var (
	_ ledger.Querier   = (*Client)(nil)
	_ ledger.Submitter = (*Client)(nil)
)

// Client talks to one indexer endpoint.
type Client struct {
	url          string
	projectID    string
	c            *http.Client
	pollInterval time.Duration
}

// New creates a Client for the endpoint at url, authenticating with
// projectID when it is not empty.
func New(url, projectID string) *Client {
	return NewWithHTTP(url, projectID, http.DefaultClient)
}

func NewWithHTTP(url, projectID string, c *http.Client) *Client {
	return &Client{
		url:          strings.TrimSuffix(url, "/"),
		projectID:    projectID,
		c:            c,
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval sets how often AwaitConfirmation polls.
func (c *Client) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

type amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type output struct {
	Address      string   `json:"address"`
	TxHash       string   `json:"tx_hash"`
	OutputIndex  uint32   `json:"output_index"`
	Amount       []amount `json:"amount"`
	InlineDatum  *string  `json:"inline_datum"`
	Collateral   bool     `json:"collateral"`
	ConsumedByTx *string  `json:"consumed_by_tx"`
}

type txUTxOs struct {
	Hash    string    `json:"hash"`
	Outputs []*output `json:"outputs"`
}

func (o *output) utxo(tx ledger.TxID) (*ledger.UTxO, error) {
	u := &ledger.UTxO{
		Ref:     ledger.OutRef{TxID: tx, Index: o.OutputIndex},
		Address: o.Address,
		Assets:  make(ledger.Assets, len(o.Amount)),
	}
	for _, a := range o.Amount {
		q, ok := new(big.Int).SetString(a.Quantity, 10)
		if !ok {
			return nil, errors.Errorf("invalid quantity %q of %v", a.Quantity, a.Unit)
		}
		u.Assets.Add(ledger.Unit(a.Unit), q)
	}
	if o.InlineDatum != nil {
		if err := u.Datum.UnmarshalText([]byte(*o.InlineDatum)); err != nil {
			return nil, errors.Wrap(err, "inline datum")
		}
	}
	return u, nil
}

// UTxOsAt pages through the unspent outputs of address.
func (c *Client) UTxOsAt(ctx context.Context, address string) ([]*ledger.UTxO, error) {
	var out []*ledger.UTxO
	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/addresses/%s/utxos?count=%d&page=%d", c.url, url.PathEscape(address), pageSize, page)
		body, err := c.httpGET(ctx, u)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// addresses without history are unknown to the indexer
				return out, nil
			}
			return nil, errors.Wrap(err, "unable to retrieve address utxos")
		}
		var outputs []*output
		if err := json.Unmarshal(body, &outputs); err != nil {
			return nil, errors.Wrap(err, "unable to unmarshal address utxos")
		}
		for _, o := range outputs {
			tx, err := ledger.ParseBytes32(o.TxHash)
			if err != nil {
				return nil, errors.Wrap(err, "tx hash")
			}
			utxo, err := o.utxo(tx)
			if err != nil {
				return nil, err
			}
			out = append(out, utxo)
		}
		if len(outputs) < pageSize {
			return out, nil
		}
	}
}

// UTxOsByRef resolves refs one transaction at a time. Spent outputs are left
// out.
func (c *Client) UTxOsByRef(ctx context.Context, refs []ledger.OutRef) ([]*ledger.UTxO, error) {
	byTx := make(map[ledger.TxID]*txUTxOs)
	var out []*ledger.UTxO
	for _, ref := range refs {
		tx, ok := byTx[ref.TxID]
		if !ok {
			body, err := c.httpGET(ctx, c.url+"/txs/"+ref.TxID.String()+"/utxos")
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, errors.Wrapf(err, "unable to retrieve utxos of %v", ref.TxID)
			}
			tx = &txUTxOs{}
			if err == nil {
				if err := json.Unmarshal(body, tx); err != nil {
					return nil, errors.Wrap(err, "unable to unmarshal tx utxos")
				}
			}
			byTx[ref.TxID] = tx
		}
		for _, o := range tx.Outputs {
			if o.OutputIndex != ref.Index || o.ConsumedByTx != nil || o.Collateral {
				continue
			}
			utxo, err := o.utxo(ref.TxID)
			if err != nil {
				return nil, err
			}
			out = append(out, utxo)
		}
	}
	return out, nil
}

// Submit posts a signed transaction in its CBOR form.
func (c *Client) Submit(ctx context.Context, signedTx []byte) (ledger.TxID, error) {
	body, err := c.httpRequest(ctx, http.MethodPost, c.url+"/tx/submit", "application/cbor", signedTx)
	if err != nil {
		return ledger.TxID{}, errors.Wrap(err, "unable to submit transaction")
	}
	var id string
	if err := json.Unmarshal(body, &id); err != nil {
		return ledger.TxID{}, errors.Wrap(err, "unable to unmarshal tx id")
	}
	return ledger.ParseBytes32(id)
}

// AwaitConfirmation polls until the indexer knows the transaction.
func (c *Client) AwaitConfirmation(ctx context.Context, id ledger.TxID) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		_, err := c.httpGET(ctx, c.url+"/txs/"+id.String())
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return errors.Wrapf(err, "unable to retrieve tx %v", id)
		}
		logger.Trace("waiting for confirmation", "tx", id)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
