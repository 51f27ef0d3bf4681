package commentary

import "github.com/hammamikhairi/moonrace/internal/domain"

// Placeholder describes how one {name} token is sampled: a uniform draw
// from [Min, Min+Span) formatted with Decimals places. Floor truncates
// instead of rounding, for whole-number counts.
type Placeholder struct {
	Name     string
	Min      float64
	Span     float64
	Decimals int
	Floor    bool
}

// SymbolPlaceholder is filled with the subject symbol rather than a number.
const SymbolPlaceholder = "symbol"

// DefaultPlaceholders are the numeric placeholders the stock templates use.
var DefaultPlaceholders = []Placeholder{
	{Name: "change", Min: 1, Span: 5, Decimals: 2},
	{Name: "volume", Min: 10, Span: 50, Decimals: 1},
	{Name: "growth", Min: 10, Span: 30},
	{Name: "positions", Min: 20, Span: 50},
	{Name: "addresses", Min: 10, Span: 40},
	{Name: "whale", Min: 2, Span: 10, Decimals: 1},
	{Name: "price", Min: 40000, Span: 10000},
	{Name: "gap", Min: 2, Span: 10, Decimals: 1},
	{Name: "depth", Min: 5, Span: 20, Decimals: 1},
	{Name: "inflow", Min: 5, Span: 30, Decimals: 1},
	{Name: "support", Min: 38000, Span: 10000},
	{Name: "rsi", Min: 20, Span: 30},
	{Name: "outflow", Min: 5, Span: 25, Decimals: 1},
	{Name: "sell", Min: 5, Span: 15, Decimals: 1},
	{Name: "fear", Min: 50, Span: 30},
	{Name: "volatility", Min: 0.5, Span: 3, Decimals: 1},
	{Name: "ratio", Min: 0.8, Span: 0.4, Decimals: 2},
	{Name: "amplitude", Min: 1, Span: 5, Decimals: 1},
	{Name: "correlation", Min: 60, Span: 30},
	{Name: "orderSize", Min: 5, Span: 20, Decimals: 1},
	{Name: "spike", Min: 1, Span: 3, Decimals: 1},
	{Name: "surge", Min: 50, Span: 100},
	{Name: "recovery", Min: 1, Span: 4, Decimals: 1},
	{Name: "oldOdds", Min: 45, Span: 10},
	{Name: "newOdds", Min: 55, Span: 10},
	{Name: "timeLeft", Min: 10, Span: 30, Floor: true},
	{Name: "txCount", Min: 10, Span: 50, Floor: true},
	{Name: "totalTx", Min: 20, Span: 100, Decimals: 1},
	{Name: "days", Min: 5, Span: 20, Floor: true},
	{Name: "target", Min: 50000, Span: 10000},
	{Name: "spread", Min: 1, Span: 5, Decimals: 1},
	{Name: "resistance", Min: 42000, Span: 10000},
}

// DefaultTemplates holds eight lines per tone.
var DefaultTemplates = map[domain.Tone][]string{
	domain.ToneBullish: {
		"{symbol} breaks out +{change}%! ${volume}M in large buy orders detected, the bulls are unstoppable!",
		"{symbol} prints three green candles in a row! 24h volume hits ${volume}M, up {growth}% on yesterday",
		"Polymarket data: {symbol} long positions jump by {positions}K, bullish sentiment is heating up",
		"Technical signal: {symbol} RSI breaks 70 and the MACD golden cross is confirmed, strong trend!",
		"On-chain: {symbol} active addresses up {addresses}%, whale wallets net inflow ${whale}M",
		"{symbol} clears the 50-day moving average! Trading at ${price}, only {gap}% below the previous high",
		"Order book: {symbol} best-bid depth ${depth}M with thin selling pressure, room to run",
		"Fund flows: {symbol} took in ${inflow}M net over the last hour, big players are building positions",
	},
	domain.ToneBearish: {
		"{symbol} slumps -{change}%! ${volume}M of sell orders flood in, support is hanging by a thread",
		"Alert! {symbol} loses the 20-day moving average at ${price}, next support ${support}",
		"Technicals deteriorate: {symbol} RSI sinks to {rsi}, MACD death cross, bears take control",
		"On-chain: {symbol} saw ${outflow}M net outflow in 24h, whale addresses dumped {whale} coins",
		"{symbol} gives up a key level! Volume shrinks to ${volume}M and buyers are not stepping in",
		"Order book: {symbol} best-ask wall of ${sell}M, heavy selling pressure, watch for a cascade",
		"Sentiment: {symbol} fear index climbs to {fear}, risk-off mood across the market",
		"Capital flight: ${outflow}M left {symbol} over the last 4 hours, big holders are distributing",
	},
	domain.ToneNeutral: {
		"{symbol} chops around ${price} with 24h volatility of just {volatility}%, waiting for direction",
		"{symbol} volume flat at ${volume}M, buyers and sellers evenly matched in a tug of war",
		"Indicators: {symbol} RSI holds at {rsi} and the Bollinger bands are squeezing, a move is brewing",
		"On-chain is calm: {symbol} has {addresses}K active addresses and holder distribution is unchanged",
		"{symbol} consolidates between ${support} and ${resistance}, the breakout direction decides what's next",
		"Order book: {symbol} bid/ask ratio {ratio}, evenly matched while the market waits for a catalyst",
		"{symbol} intraday range {amplitude}%, thin trading as big money sits on the sidelines",
		"Correlation check: {symbol} tracks the broad market at {correlation}%, carving its own path",
	},
	domain.ToneAlert: {
		"Breaking! A single ${orderSize}M order fills on {symbol}, price jolts {spike}% in an instant!",
		"Anomaly: {symbol} volume surges {surge}% to ${volume}M, looks like a major player stepping in",
		"Reversal! {symbol} swings from -{change}% to +{recovery}%, shorts are getting liquidated",
		"Polymarket update: {symbol} win probability jumps from {oldOdds}% to {newOdds}%",
		"Final {timeLeft} minutes! {symbol} leads by just {gap}%, this one could go either way",
		"On-chain movement: {txCount} large {symbol} transfers totalling ${totalTx}M",
		"Technical breakout: {symbol} escapes a {days}-day range, next target ${target}",
		"Market makers: {symbol} bid-ask spread tightens to {spread} bps, liquidity improving",
	},
}
