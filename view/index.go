package view

// indexPage draws a 2:1 canvas that streams pointer positions in
// canvas-square units and refreshes raster and trace images.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>subsim</title>
<style>
body { background: #111; color: #ccc; font-family: monospace; }
canvas { background: #222; cursor: crosshair; touch-action: none; }
img { image-rendering: pixelated; width: 800px; display: block; margin-top: 8px; }
</style>
</head>
<body>
<canvas id="pad" width="800" height="400"></canvas>
<img id="raster" alt="raster">
<img id="trace" alt="trace">
<form id="connect">
<input name="host" placeholder="host"> <button>connect</button> <span id="status"></span>
</form>
<script>
const pad = document.getElementById("pad");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/pointer");
function send(e, contact) {
	const r = pad.getBoundingClientRect();
	const unit = r.height;
	ws.readyState === 1 && ws.send(JSON.stringify({
		x: (e.clientX - r.left) / unit,
		y: (e.clientY - r.top) / unit,
		contact: contact,
	}));
}
let down = false;
pad.addEventListener("pointerdown", e => { down = true; send(e, true); });
pad.addEventListener("pointermove", e => { if (down) send(e, true); });
window.addEventListener("pointerup", e => { down = false; send(e, false); });
setInterval(() => {
	const t = Date.now();
	document.getElementById("raster").src = "/raster.png?t=" + t;
	document.getElementById("trace").src = "/trace.svg?t=" + t;
}, 200);
document.getElementById("connect").addEventListener("submit", e => {
	e.preventDefault();
	const host = new FormData(e.target).get("host");
	fetch("/connect?host=" + encodeURIComponent(host), { method: "POST" })
		.then(r => r.text().then(t => document.getElementById("status").textContent = r.ok ? "ok" : t));
});
</script>
</body>
</html>
`
