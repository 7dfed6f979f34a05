package server

// editorPage is the preview editor: source and style panes on the left, the
// compiled document rendered into an iframe on the right. Edits are sent over
// the websocket and the iframe is replaced with each render; a reload push
// from the server re-sends the current buffers.
const editorPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Nucleator</title>
<style>
  * { box-sizing: border-box; }
  body { margin: 0; font-family: -apple-system, sans-serif; display: flex; height: 100vh; }
  .pane { flex: 1; display: flex; flex-direction: column; min-width: 0; }
  .pane header { padding: 6px 12px; background: #1a202c; color: #e2e8f0; font-size: 13px; display: flex; justify-content: space-between; }
  textarea { flex: 1; border: none; outline: none; resize: none; padding: 12px; font-family: monospace; font-size: 13px; }
  #style-input { flex: 0 0 30%; border-top: 1px solid #cbd5e0; }
  iframe { flex: 1; border: none; }
  #status { color: #68d391; }
  #status.down { color: #fc8181; }
</style>
</head>
<body>
  <div class="pane">
    <header><span>Source</span><span id="status">connecting</span></header>
    <textarea id="source-input" spellcheck="false" placeholder="&lt;n:view title=&quot;My Page&quot;&gt;&#10;  &lt;h1&gt;{site}&lt;/h1&gt;&#10;&lt;/n:view&gt;"></textarea>
    <header><span>Style</span></header>
    <textarea id="style-input" spellcheck="false" placeholder="h1 { color: teal; }"></textarea>
  </div>
  <div class="pane">
    <header><span>Preview</span></header>
    <iframe id="preview" sandbox="allow-scripts"></iframe>
  </div>
<script>
(function() {
  var source = document.getElementById("source-input");
  var style = document.getElementById("style-input");
  var preview = document.getElementById("preview");
  var status = document.getElementById("status");
  var ws = null;
  var timer = null;

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() {
      status.textContent = "live";
      status.classList.remove("down");
      send();
    };
    ws.onclose = function() {
      status.textContent = "disconnected";
      status.classList.add("down");
      setTimeout(connect, 1000);
    };
    ws.onmessage = function(ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "render") {
        preview.srcdoc = msg.content;
      } else if (msg.type === "reload") {
        send();
      }
    };
  }

  function send() {
    if (!ws || ws.readyState !== WebSocket.OPEN) return;
    ws.send(JSON.stringify({
      type: "compile",
      source: source.value,
      style: style.value
    }));
  }

  function schedule() {
    clearTimeout(timer);
    timer = setTimeout(send, 150);
  }

  source.addEventListener("input", schedule);
  style.addEventListener("input", schedule);
  connect();
})();
</script>
</body>
</html>
`
