package page

// The page scripts below are evaluated in the host tab. Each resolves
// with {ok, message, data}. Selectors target a Django admin inline
// formset: each row has an attribute <select> with id
// "id_<prefix>-N-attribute" and a value container "id_<prefix>-N-value";
// the "__prefix__" template row is always excluded.

const scrapeJS = `(prefix) => {
	try {
		const group = document.querySelector('#' + prefix + '-group');
		if (group && group.classList.contains('grp-closed')) {
			group.classList.remove('grp-closed');
			group.classList.add('grp-open');
		}

		const lengthInput = document.querySelector('#id_length');
		const widthInput = document.querySelector('#id_width');

		const readValue = (el) => {
			if (!el) return null;
			if (el.tagName === 'SELECT' || (el.tagName === 'INPUT' && el.type === 'text')) {
				return el.value;
			}
			const radios = el.querySelectorAll('input[type="radio"]:checked');
			if (radios.length > 0) {
				const v = radios[0].value;
				if (v === 'True') return true;
				if (v === 'False') return false;
				return v;
			}
			const boxes = el.querySelectorAll('input[type="checkbox"]:checked');
			if (boxes.length > 0) return Array.from(boxes).map((cb) => cb.value);
			return null;
		};

		const selects = document.querySelectorAll(
			'[id^="id_' + prefix + '-"][id$="-attribute"]:not([id*="__prefix__"])');
		const values = document.querySelectorAll(
			'[id^="id_' + prefix + '-"][id$="-value"]:not([id*="__prefix__"])');
		if (selects.length !== values.length) {
			return { ok: false, message: 'attribute/value row count mismatch' };
		}

		const props = [];
		selects.forEach((sel, i) => {
			if (sel.value) props.push({ id: sel.value, value: readValue(values[i]) });
		});

		return {
			ok: true,
			data: {
				properties: props,
				length: lengthInput ? lengthInput.value : '',
				width: widthInput ? widthInput.value : '',
			},
		};
	} catch (e) {
		return { ok: false, message: 'scrape failed: ' + e.message };
	}
}`

const addRowsJS = `async (prefix, addLabel, ids, delayMs) => {
	const sleep = (ms) => new Promise((r) => setTimeout(r, ms));

	let addButton = null;
	for (const strong of document.querySelectorAll('strong')) {
		if (strong.textContent.includes(addLabel)) {
			addButton = strong.parentElement;
			break;
		}
	}
	if (!addButton) {
		return { ok: false, message: 'add-row control not found' };
	}

	const rowCount = () => document.querySelectorAll(
		'[id^="id_' + prefix + '-"][id$="-attribute"]:not([id*="__prefix__"])').length;
	const click = new MouseEvent('click', { view: window, bubbles: true, cancelable: true });

	for (const id of ids) {
		const n = rowCount();
		addButton.dispatchEvent(click);
		await sleep(delayMs);

		const sel = document.getElementById('id_' + prefix + '-' + n + '-attribute');
		if (sel) {
			sel.value = id;
			sel.dispatchEvent(new Event('change', { bubbles: true }));
		}
		window.scrollTo(0, document.body.scrollHeight * 0.97);
		await sleep(delayMs);
	}
	return { ok: true, data: {} };
}`

const fillJS = `async (prefix, entries, delayMs) => {
	const sleep = (ms) => new Promise((r) => setTimeout(r, ms));

	const writeValue = (el, value) => {
		const radios = el.querySelectorAll('input[type="radio"]');
		if (radios.length > 0) {
			const target = value ? 'true' : 'false';
			const radio = Array.from(radios).find((r) => r.value.toLowerCase() === target);
			if (radio) {
				radio.checked = true;
				radio.dispatchEvent(new Event('change', { bubbles: true }));
			}
			return;
		}
		if (Array.isArray(value)) {
			el.querySelectorAll('input[type="checkbox"]').forEach((cb) => {
				const want = value.includes(cb.value);
				if (cb.checked !== want) {
					cb.checked = want;
					cb.dispatchEvent(new Event('change', { bubbles: true }));
				}
			});
			return;
		}
		if (el.value !== value) {
			el.value = value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
		}
	};

	const selects = document.querySelectorAll(
		'[id^="id_' + prefix + '-"][id$="-attribute"]:not([id*="__prefix__"])');
	const values = document.querySelectorAll(
		'[id^="id_' + prefix + '-"][id$="-value"]:not([id*="__prefix__"])');
	if (selects.length !== values.length) {
		return { ok: false, message: 'attribute/value row count mismatch' };
	}

	let filled = 0;
	for (const entry of entries) {
		for (let i = 0; i < selects.length; i++) {
			if (selects[i].value === entry.id && values[i]) {
				writeValue(values[i], entry.value);
				filled++;
			}
		}
		await sleep(delayMs);
	}
	return { ok: true, data: { filled: filled } };
}`

const cleanEmptyJS = `(prefix) => {
	try {
		const selects = document.querySelectorAll(
			'[id^="id_' + prefix + '-"][id$="-attribute"]:not([id*="__prefix__"])');
		const values = document.querySelectorAll(
			'[id^="id_' + prefix + '-"][id$="-value"]:not([id*="__prefix__"])');
		if (selects.length !== values.length) {
			return { ok: false, message: 'attribute/value row count mismatch' };
		}

		const isEmpty = (el) => {
			if (!el) return true;
			if (el.tagName === 'SELECT' || (el.tagName === 'INPUT' && el.type === 'text')) {
				return el.value === '';
			}
			return el.querySelectorAll(
				'input[type="radio"]:checked, input[type="checkbox"]:checked').length === 0;
		};

		let removed = 0;
		for (let i = selects.length - 1; i >= 0; i--) {
			if (!isEmpty(values[i])) continue;
			const row = selects[i].closest('.grp-dynamic-form, .inline-related, tr');
			if (!row) continue;
			const remove = row.querySelector('a.grp-delete-handler, a.inline-deletelink');
			if (remove) {
				remove.dispatchEvent(new MouseEvent('click', { view: window, bubbles: true, cancelable: true }));
				removed++;
				continue;
			}
			const del = row.querySelector('input[type="checkbox"][id$="-DELETE"]');
			if (del && !del.checked) {
				del.checked = true;
				del.dispatchEvent(new Event('change', { bubbles: true }));
				removed++;
			}
		}
		return { ok: true, message: 'removed ' + removed + ' empty rows', data: {} };
	} catch (e) {
		return { ok: false, message: 'clean failed: ' + e.message };
	}
}`
