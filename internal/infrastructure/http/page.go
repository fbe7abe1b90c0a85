package http

// indexPage is the single form page. Formatted with the "obtain a token"
// URL and the upload ceiling in MiB.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>VisionAsk</title>
    <style>
        body { font-family: system-ui, sans-serif; background: #11131a; color: #e8e8e8; margin: 0; }
        .container { max-width: 640px; margin: 0 auto; padding: 2rem 1rem; }
        h1 { margin: 0 0 0.25rem; }
        .subtitle { color: #8a8f9d; margin: 0 0 1.5rem; }
        fieldset { border: 1px solid #2a2e3d; border-radius: 8px; margin: 0 0 1rem; padding: 1rem; }
        legend { color: #8a8f9d; padding: 0 0.4rem; }
        input[type=text], input[type=password] { width: 100%%; box-sizing: border-box; padding: 0.6rem;
            background: #1a1d27; color: #e8e8e8; border: 1px solid #2a2e3d; border-radius: 6px; }
        button { padding: 0.6rem 1.2rem; border: 0; border-radius: 6px; background: #4460e6; color: white; cursor: pointer; }
        button:disabled { background: #2a2e3d; cursor: wait; }
        button.secondary { background: #2a2e3d; }
        .hint { color: #8a8f9d; font-size: 0.85rem; }
        .hint a { color: #7a95ff; }
        #preview { max-width: 100%%; max-height: 240px; border-radius: 6px; display: none; margin-top: 0.6rem; }
        #gallery { display: flex; gap: 0.5rem; flex-wrap: wrap; margin-top: 0.6rem; }
        #gallery img { width: 72px; height: 72px; object-fit: cover; border-radius: 6px; cursor: pointer; border: 2px solid transparent; }
        #gallery img.selected { border-color: #4460e6; }
        #answer { background: #16251b; border: 1px solid #2c5137; border-radius: 6px; padding: 0.8rem; display: none; }
        #error { background: #2b1619; border: 1px solid #5e2a31; border-radius: 6px; padding: 0.8rem; display: none; }
        .row { display: flex; gap: 0.6rem; margin-top: 1rem; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>VisionAsk</h1>
            <p class="subtitle">Upload an image, ask a question, get an answer</p>
        </header>

        <main>
            <fieldset id="token-section">
                <legend>API token</legend>
                <input type="password" id="token-input" placeholder="Bearer token" autocomplete="off">
                <p class="hint">Needs a token? <a href="%s" target="_blank" rel="noopener">Obtain one here</a>.
                   It stays in this session only.</p>
            </fieldset>

            <fieldset>
                <legend>Image (up to %d MiB)</legend>
                <input type="file" id="image-input" accept="image/*">
                <img id="preview" alt="">
                <div id="gallery"></div>
            </fieldset>

            <fieldset>
                <legend>Question</legend>
                <input type="text" id="question-input" placeholder="What color is the cat?" autocomplete="off">
            </fieldset>

            <div id="answer"></div>
            <div id="error"></div>

            <div class="row">
                <button id="ask-btn" onclick="ask()">Ask</button>
                <button class="secondary" onclick="reset()">Reset</button>
            </div>
        </main>
    </div>

    <script>
        async function api(path, opts) {
            const res = await fetch(path, opts);
            return res.json();
        }

        function render(s) {
            document.getElementById('token-section').style.display = s.configured ? 'none' : 'block';
            document.getElementById('ask-btn').disabled = s.status === 'in-flight';
            show('answer', s.answer);
            show('error', s.error);
        }

        function show(id, text) {
            const el = document.getElementById(id);
            el.textContent = text || '';
            el.style.display = text ? 'block' : 'none';
        }

        async function uploadFile(file) {
            const form = new FormData();
            form.append('image', file);
            const s = await api('/api/session/image', { method: 'POST', body: form });
            if (s.error && !s.status) { show('error', s.error); return; }
            document.getElementById('preview').src = URL.createObjectURL(file);
            document.getElementById('preview').style.display = 'block';
            selectThumb(null);
            render(s);
        }

        async function pickSample(name, el) {
            const s = await api('/api/session/image/gallery', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ name: name })
            });
            if (s.error && !s.status) { show('error', s.error); return; }
            document.getElementById('preview').src = '/api/gallery/image?name=' + encodeURIComponent(name);
            document.getElementById('preview').style.display = 'block';
            selectThumb(el);
            render(s);
        }

        function selectThumb(el) {
            document.querySelectorAll('#gallery img').forEach(i => i.classList.remove('selected'));
            if (el) el.classList.add('selected');
        }

        async function ask() {
            const question = document.getElementById('question-input').value;
            await api('/api/session/question', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ question: question })
            });
            const token = document.getElementById('token-input').value;
            if (token) {
                await api('/api/session/credential', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ token: token })
                });
            }
            document.getElementById('ask-btn').disabled = true;
            const s = await api('/api/session/submit', { method: 'POST' });
            render(s);
        }

        async function reset() {
            const s = await api('/api/session/reset', { method: 'POST' });
            document.getElementById('image-input').value = '';
            document.getElementById('question-input').value = '';
            document.getElementById('preview').style.display = 'none';
            selectThumb(null);
            render(s);
        }

        async function loadGallery() {
            const data = await api('/api/gallery');
            const gallery = document.getElementById('gallery');
            (data.images || []).forEach(img => {
                const el = document.createElement('img');
                el.src = '/api/gallery/image?name=' + encodeURIComponent(img.name);
                el.title = img.name;
                el.onclick = () => pickSample(img.name, el);
                gallery.appendChild(el);
            });
        }

        document.getElementById('image-input').addEventListener('change', e => {
            if (e.target.files.length) uploadFile(e.target.files[0]);
        });

        api('/api/session').then(render);
        loadGallery();
    </script>
</body>
</html>`
