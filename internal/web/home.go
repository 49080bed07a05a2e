package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Diamond Hands</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Diamond Hands</span>
        <h1>Hold your nerve. Secure your stack.</h1>
        <p>Host a table and play both seats, or watch a table someone else is hosting.</p>
      </header>

      <section class="panel">
        <div>
          <h2>Host a room</h2>
          <p>Add your ledger identity to let others watch. Leave it empty to play locally.</p>
        </div>
        <form id="createForm">
          <input name="identity" placeholder="0x… (optional)" autocomplete="off"/>
          <button type="submit" class="primary">Create room</button>
        </form>
      </section>

      <section class="panel">
        <div>
          <h2>Watch a room</h2>
          <p>Enter the room code and the host identity.</p>
        </div>
        <form id="joinForm">
          <input name="room_code" placeholder="DIAMOND-1234" autocomplete="off" required/>
          <input name="host_identity" placeholder="0x…" autocomplete="off" required/>
          <button type="submit" class="secondary">Watch</button>
        </form>
      </section>

      <section class="panel" id="table" hidden>
        <h2 id="roomTitle"></h2>
        <pre id="roomState"></pre>
        <div class="actions">
          <button data-action="hold">Hold</button>
          <button data-action="secure">Secure</button>
          <button data-action="new">New game</button>
          <button id="leave">Leave</button>
        </div>
        <p id="result" class="result"></p>
      </section>
    </main>

    <script>
      const table = document.getElementById("table");
      const title = document.getElementById("roomTitle");
      const stateBox = document.getElementById("roomState");
      const result = document.getElementById("result");

      const render = (view) => {
        table.hidden = view.role === "none";
        title.textContent = view.room_code ? view.role + " · " + view.room_code : "";
        stateBox.textContent = JSON.stringify(view, null, 2);
        for (const btn of table.querySelectorAll("[data-action]")) {
          btn.disabled = view.role !== "host";
        }
      };

      const post = async (path, body) => {
        const res = await fetch(path, {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(body || {})
        });
        const data = await res.json();
        result.textContent = res.ok ? "" : data.error || "Request failed.";
        if (res.ok && data.view) {
          render(data.view);
        }
        return res.ok;
      };

      document.getElementById("createForm").addEventListener("submit", (event) => {
        event.preventDefault();
        post("/api/rooms", { identity: event.target.elements.identity.value.trim() });
      });
      document.getElementById("joinForm").addEventListener("submit", (event) => {
        event.preventDefault();
        const form = event.target.elements;
        post("/api/rooms/join", {
          room_code: form.room_code.value.trim(),
          host_identity: form.host_identity.value.trim()
        });
      });
      for (const btn of table.querySelectorAll("[data-action]")) {
        btn.addEventListener("click", () => post("/api/game/" + btn.dataset.action));
      }
      document.getElementById("leave").addEventListener("click", () => post("/api/rooms/leave"));

      const connect = () => {
        const scheme = location.protocol === "https:" ? "wss://" : "ws://";
        const ws = new WebSocket(scheme + location.host + "/ws/room");
        ws.onmessage = (event) => render(JSON.parse(event.data));
        ws.onclose = () => setTimeout(connect, 2000);
      };
      connect();
    </script>
  </body>
</html>
`)
		return nil
	})
}
