package dashboard

import "net/http"

func (d *Dashboard) serveFrontend(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(frontendHTML))
}

const frontendHTML = `<!DOCTYPE html>
<html lang="en"><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Whale Tracker</title>
<link href="https://fonts.googleapis.com/css2?family=JetBrains+Mono:wght@300;400;500;600;700&family=Space+Grotesk:wght@400;500;600;700&display=swap" rel="stylesheet">
<style>
:root{--bg:#07090e;--sf:#0e1119;--sf2:#151a25;--sf3:#1d2332;--bd:#242b3c;--bd2:#323b52;--tx:#c8cdd8;--tx2:#8891a5;--tx3:#5a6278;--ac:#0ea5e9;--gn:#10b981;--rd:#ef4444;--or:#f59e0b;--pr:#a855f7;--go:#eab308}
*{margin:0;padding:0;box-sizing:border-box}
body{font-family:'JetBrains Mono',monospace;background:var(--bg);color:var(--tx);min-height:100vh}
.app{max-width:1440px;margin:0 auto;padding:20px 24px}
.hdr{display:flex;justify-content:space-between;align-items:center;padding:16px 0;border-bottom:1px solid var(--bd);margin-bottom:24px}
.hdr h1{font-family:'Space Grotesk',sans-serif;font-size:22px;font-weight:700;background:linear-gradient(135deg,var(--ac),var(--pr));-webkit-background-clip:text;-webkit-text-fill-color:transparent}
.nav{display:flex;gap:4px;margin-bottom:24px;background:var(--sf);border-radius:10px;padding:4px;border:1px solid var(--bd)}
.nav button{font-family:inherit;font-size:11px;padding:9px 18px;border:none;background:0;color:var(--tx2);cursor:pointer;border-radius:8px}
.nav button.on{background:var(--ac);color:#fff}
.sts{display:grid;grid-template-columns:repeat(auto-fit,minmax(150px,1fr));gap:12px;margin-bottom:24px}
.st{background:var(--sf);border:1px solid var(--bd);border-radius:10px;padding:15px 16px}
.st .v{font-size:24px;font-weight:700;color:var(--ac)}
.st .l{font-size:9px;color:var(--tx3);text-transform:uppercase;letter-spacing:.8px;margin-top:5px}
.pn{background:var(--sf);border:1px solid var(--bd);border-radius:12px;margin-bottom:18px;overflow:hidden}
.pn-h{display:flex;justify-content:space-between;align-items:center;padding:13px 18px;border-bottom:1px solid var(--bd);background:var(--sf2)}
.pn-h h2{font-family:'Space Grotesk',sans-serif;font-size:13px;font-weight:600}
table{width:100%;border-collapse:collapse}
th{text-align:left;font-size:9px;color:var(--tx3);text-transform:uppercase;letter-spacing:.8px;padding:10px 14px;border-bottom:1px solid var(--bd)}
td{padding:10px 14px;border-bottom:1px solid rgba(36,43,60,.4);font-size:12px}
.addr{color:var(--go);font-size:11px;cursor:pointer}.addr:hover{text-decoration:underline}
.bg{display:inline-block;padding:2px 8px;border-radius:5px;font-size:9px;font-weight:600}
.bg-solana{background:rgba(153,69,255,.12);color:#b07eff}
.bg-ethereum{background:rgba(98,126,234,.12);color:#8da0f0}
.bg-base{background:rgba(0,82,255,.12);color:#4d8fff}
.bg-bsc{background:rgba(243,186,47,.12);color:#f3ba2f}
.pos{color:var(--gn)}.neg{color:var(--rd)}
.mo{position:fixed;inset:0;background:rgba(0,0,0,.7);display:flex;align-items:center;justify-content:center;z-index:100}
.md{background:var(--sf);border:1px solid var(--bd2);border-radius:14px;padding:24px;width:720px;max-width:94vw;max-height:86vh;overflow:auto}
.md h2{font-family:'Space Grotesk',sans-serif;font-size:18px;margin-bottom:16px}
.fg{margin-bottom:14px}.fg label{display:block;font-size:10px;color:var(--tx2);margin-bottom:6px}
.fg input,.fg select{width:100%;padding:10px 12px;background:var(--sf2);border:1px solid var(--bd);border-radius:8px;color:var(--tx);font-family:inherit;font-size:12px}
.btn{font-family:inherit;font-size:11px;padding:8px 16px;border:none;border-radius:8px;cursor:pointer;font-weight:600;background:var(--ac);color:#fff}
.btn-s{background:var(--sf2);color:var(--tx2);border:1px solid var(--bd)}
.emp{text-align:center;padding:40px;color:var(--tx3);font-size:12px}
</style></head><body>
<div id="root"></div>
<script src="https://cdnjs.cloudflare.com/ajax/libs/react/18.2.0/umd/react.production.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/react-dom/18.2.0/umd/react-dom.production.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/babel-standalone/7.23.9/babel.min.js"></script>
<script type="text/babel">
const{useState,useEffect,useCallback}=React;
const useFetch=(u,ms=10000)=>{const[d,sD]=useState(null);const ld=useCallback(()=>{fetch(u).then(r=>r.json()).then(sD).catch(()=>{})},[u]);useEffect(()=>{ld();const i=setInterval(ld,ms);return()=>clearInterval(i)},[ld,ms]);return{d,r:ld}};
const ab=a=>a?(a.slice(0,6)+'...'+a.slice(-4)):'-';
const usd=v=>(v<0?'-$':'$')+Math.abs(Math.round(v||0)).toLocaleString();
const CB=c=><span className={'bg bg-'+c}>{c||'?'}</span>;
const TS=t=>t?new Date(t*1000).toISOString().replace('T',' ').slice(0,19):'-';
const TIER={ELITE:'🏆',EXCELLENT:'💎',GOOD:'✅',AVERAGE:'📊',POOR:'📉'};

function App(){
  const[tab,sT]=useState('whales');const[sel,sS]=useState(null);const[add,sA]=useState(false);
  const stats=useFetch('/api/stats');const whales=useFetch('/api/whales');const traders=useFetch('/api/traders');const txs=useFetch('/api/transactions?limit=200',15000);
  const s=stats.d||{};
  return<div className="app">
    <div className="hdr"><h1>🐋 Whale Tracker</h1><button className="btn" onClick={()=>sA(true)}>+ Watch whale</button></div>
    <div className="sts">
      <div className="st"><div className="v">{s.transactions||0}</div><div className="l">Transactions</div></div>
      <div className="st"><div className="v">{s.whale_addresses||0}</div><div className="l">Whales</div></div>
      <div className="st"><div className="v">{s.false_positives||0}</div><div className="l">False positives</div></div>
      <div className="st"><div className="v">{s.profitable_traders||0}</div><div className="l">Traders</div></div>
      <div className="st"><div className="v">{s.elite_traders||0}</div><div className="l">Elite</div></div>
      <div className="st"><div className="v">{s.address_relationships||0}</div><div className="l">Relationships</div></div>
    </div>
    <div className="nav">{['whales','traders','transactions'].map(t=><button key={t} className={tab===t?'on':''} onClick={()=>sT(t)}>{t}</button>)}</div>
    {tab==='whales'&&<WhalesTab whales={whales.d||[]} onSelect={sS}/>}
    {tab==='traders'&&<TradersTab traders={traders.d||[]} onSelect={sS}/>}
    {tab==='transactions'&&<TxTab txs={txs.d||[]} onSelect={sS}/>}
    {sel&&<WalletModal address={sel} onClose={()=>sS(null)}/>}
    {add&&<AddWhaleModal onClose={()=>sA(false)} onAdded={()=>{sA(false);whales.r();stats.r()}}/>}
  </div>
}

function WhalesTab({whales,onSelect}){
  if(!whales.length)return<div className="pn emp">No whales yet. Run discover or track.</div>;
  return<div className="pn"><div className="pn-h"><h2>Top whales</h2></div><table><thead><tr><th>#</th><th>Address</th><th>Chain</th><th>Score</th><th>Volume</th><th>Txs</th><th>Counterparts</th><th>Label</th></tr></thead><tbody>
    {whales.map((w,i)=><tr key={w.address}><td>{i+1}</td><td className="addr" onClick={()=>onSelect(w.address)}>{ab(w.address)}</td><td>{CB(w.chain)}</td><td>{w.whale_score.toFixed(2)}</td><td>{usd(w.total_volume_usd)}</td><td>{w.transaction_count}</td><td>{w.unique_counterparts}</td><td>{w.label||'-'}</td></tr>)}
  </tbody></table></div>
}

function TradersTab({traders,onSelect}){
  if(!traders.length)return<div className="pn emp">No profitable traders yet. Run analyze.</div>;
  return<div className="pn"><div className="pn-h"><h2>Profitable traders</h2></div><table><thead><tr><th>#</th><th>Wallet</th><th>Score</th><th>Tier</th><th>Win rate</th><th>Profit</th><th>Trades</th><th>Strategy</th></tr></thead><tbody>
    {traders.map((t,i)=><tr key={t.wallet_address}><td>{i+1}</td><td className="addr" onClick={()=>onSelect(t.wallet_address)}>{ab(t.wallet_address)}</td><td>{t.profitability_score.toFixed(1)}</td><td>{TIER[t.tier]} {t.tier}</td><td>{(t.win_rate*100).toFixed(1)}%</td><td className={t.total_profit>=0?'pos':'neg'}>{usd(t.total_profit)}</td><td>{t.trade_count}</td><td>{t.trading_strategy}</td></tr>)}
  </tbody></table></div>
}

function TxTab({txs,onSelect}){
  if(!txs.length)return<div className="pn emp">No transactions stored.</div>;
  return<div className="pn"><div className="pn-h"><h2>Recent transactions</h2></div><table><thead><tr><th>Time</th><th>Chain</th><th>From</th><th>To</th><th>Token</th><th>USD</th><th>Size</th></tr></thead><tbody>
    {txs.map(t=><tr key={t.hash}><td>{TS(t.timestamp)}</td><td>{CB(t.chain)}</td><td className="addr" onClick={()=>onSelect(t.from_address)}>{ab(t.from_address)}</td><td className="addr" onClick={()=>onSelect(t.to_address)}>{ab(t.to_address)}</td><td>{t.token_symbol}</td><td>{usd(t.value_usd)}</td><td>{t.whale_category}</td></tr>)}
  </tbody></table></div>
}

function WalletModal({address,onClose}){
  const{d}=useFetch('/api/wallet/'+address,30000);
  return<div className="mo" onClick={onClose}><div className="md" onClick={e=>e.stopPropagation()}>
    <h2>{ab(address)} {d&&d.label&&d.label.label?'· '+d.label.label:''}</h2>
    {!d?<div className="emp">Loading...</div>:<div>
      {d.whale&&<p>Whale score <b>{d.whale.whale_score.toFixed(2)}</b> · volume {usd(d.whale.total_volume_usd)} · {d.whale.transaction_count} txs</p>}
      {d.trader&&<p>Trader {TIER[d.trader.tier]} {d.trader.tier} · score {d.trader.profitability_score.toFixed(1)} · profit {usd(d.trader.total_profit)}</p>}
      <table><thead><tr><th>Counterparty</th><th>Interactions</th><th>Volume</th></tr></thead><tbody>
        {(d.network||[]).slice(0,20).map(n=><tr key={n.from_address+n.to_address}><td>{ab(n.from_address.toLowerCase()===address.toLowerCase()?n.to_address:n.from_address)}</td><td>{n.interaction_count}</td><td>{usd(n.total_volume_usd)}</td></tr>)}
      </tbody></table>
    </div>}
    <div style={{marginTop:16,textAlign:'right'}}><button className="btn btn-s" onClick={onClose}>Close</button></div>
  </div></div>
}

function AddWhaleModal({onClose,onAdded}){
  const[addr,sAd]=useState('');const[ch,sCh]=useState('');const[label,sL]=useState('');const[err,sE]=useState('');
  const submit=async()=>{
    const res=await fetch('/api/whales/add',{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify({address:addr.trim(),chain:ch,label})});
    if(res.ok)onAdded();else sE(await res.text());
  };
  return<div className="mo" onClick={onClose}><div className="md" style={{width:480}} onClick={e=>e.stopPropagation()}>
    <h2>Watch a whale</h2>
    <div className="fg"><label>Address</label><input value={addr} onChange={e=>sAd(e.target.value)} placeholder="0x... or Solana base58"/></div>
    <div className="fg"><label>Chain</label><select value={ch} onChange={e=>sCh(e.target.value)}><option value="">auto</option><option>ethereum</option><option>base</option><option>bsc</option><option>solana</option></select></div>
    <div className="fg"><label>Label</label><input value={label} onChange={e=>sL(e.target.value)}/></div>
    {err&&<p className="neg">{err}</p>}
    <div style={{display:'flex',gap:10,justifyContent:'flex-end'}}><button className="btn btn-s" onClick={onClose}>Cancel</button><button className="btn" onClick={submit} disabled={!addr.trim()}>Add</button></div>
  </div></div>
}

ReactDOM.createRoot(document.getElementById('root')).render(<App/>);
</script></body></html>`
