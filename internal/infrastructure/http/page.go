package http

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>FlowSupport AI</title>
    <link rel="stylesheet" href="/static/style.css">
</head>
<body>
    <div class="layout">
        <aside id="sidebar">
            <h2>Session</h2>
            <dl>
                <dt>Total queries</dt><dd id="stat-total">0</dd>
                <dt>Escalations</dt><dd id="stat-escalations">0</dd>
                <dt>Autonomous resolution</dt><dd id="stat-autonomous">-</dd>
                <dt>High confidence</dt><dd id="stat-high">-</dd>
                <dt>Clarifications</dt><dd id="stat-clarify">-</dd>
            </dl>
            <h2>Examples</h2>
            <ul id="examples">
                <li>How do I change my hotkey?</li>
                <li>What languages does Flow support?</li>
                <li>Flow won't install</li>
                <li>I want a refund</li>
            </ul>
        </aside>
        <main>
            <header>
                <h1>FlowSupport AI</h1>
                <p class="subtitle">Answers from the Flow help center. Hard cases go to a human.</p>
            </header>
            <div id="chat-container"><div id="messages"></div></div>
            <form id="query-form">
                <input type="text" id="query-input" placeholder="Ask about Flow..." autocomplete="off" required>
                <button type="submit" id="send-btn">Send</button>
            </form>
        </main>
    </div>
    <script>
        const messages = document.getElementById('messages');
        const container = document.getElementById('chat-container');
        const input = document.getElementById('query-input');

        function el(tag, cls, text) {
            const e = document.createElement(tag);
            if (cls) e.className = cls;
            if (text !== undefined) e.textContent = text;
            return e;
        }

        function pct(v) { return v.toFixed(0) + '%'; }

        function renderStats(s) {
            document.getElementById('stat-total').textContent = s.total_queries;
            document.getElementById('stat-escalations').textContent = s.escalations;
            if (s.total_queries > 0) {
                document.getElementById('stat-autonomous').textContent = pct(s.autonomous_rate);
                document.getElementById('stat-high').textContent = pct(s.high_confidence_rate);
                document.getElementById('stat-clarify').textContent = pct(s.clarification_rate);
            }
        }

        function renderAnswer(v) {
            const box = el('div', 'message assistant');
            box.appendChild(el('div', 'answer', v.response));
            const meta = el('div', 'meta');
            meta.appendChild(el('span', 'badge confidence-' + v.confidence, v.confidence + ' confidence'));
            meta.appendChild(el('span', 'badge', 'relevance ' + (v.relevance * 100).toFixed(1) + '%'));
            meta.appendChild(el('span', 'badge', v.elapsed_ms + ' ms'));
            box.appendChild(meta);
            if (v.escalation.flag) {
                const esc = el('div', 'escalation');
                esc.appendChild(el('strong', '', 'Escalated to ' + v.escalation.team + ' (' + v.escalation.priority + ')'));
                esc.appendChild(el('div', '', v.escalation.reason));
                box.appendChild(esc);
            }
            if (v.docs.length) {
                const det = el('details', 'sources');
                det.appendChild(el('summary', '', 'Sources'));
                v.docs.forEach(function (d, i) {
                    const item = el('div', 'source');
                    item.appendChild(el('strong', '', (i + 1) + '. ' + d.source + ' p.' + d.page + ' (' + (d.relevance * 100).toFixed(1) + '%)'));
                    item.appendChild(el('div', 'preview', d.preview));
                    det.appendChild(item);
                });
                box.appendChild(det);
            }
            return box;
        }

        async function ask(query) {
            messages.appendChild(el('div', 'message user', query));
            const pending = el('div', 'message assistant pending', 'Searching documentation...');
            messages.appendChild(pending);
            container.scrollTop = container.scrollHeight;
            try {
                const res = await fetch('/api/query', {
                    method: 'POST',
                    headers: {'Content-Type': 'application/json'},
                    body: JSON.stringify({query: query})
                });
                const body = await res.json();
                pending.remove();
                if (!res.ok) {
                    messages.appendChild(el('div', 'message error', body.error || 'Request failed'));
                } else {
                    messages.appendChild(renderAnswer(body));
                    renderStats(body.session);
                }
            } catch (err) {
                pending.remove();
                messages.appendChild(el('div', 'message error', 'Connection error'));
            }
            container.scrollTop = container.scrollHeight;
        }

        document.getElementById('query-form').addEventListener('submit', function (e) {
            e.preventDefault();
            const q = input.value.trim();
            if (!q) return;
            input.value = '';
            ask(q);
        });
        document.querySelectorAll('#examples li').forEach(function (li) {
            li.addEventListener('click', function () { ask(li.textContent); });
        });
        fetch('/api/session').then(function (r) { return r.json(); }).then(renderStats);
    </script>
</body>
</html>`
